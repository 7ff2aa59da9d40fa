package service

import (
	"os"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"quantum_bot/pkg/logger"
)

// export writes the accumulated cycle history to the configured path. The
// run goroutine calls it once, after the last cycle, so results are final.
func (o *Orchestrator) export() error {
	if o.cfg.ExportPath == "" {
		return nil
	}

	payload, err := sonic.MarshalIndent(o.results, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal results")
	}
	if err := os.WriteFile(o.cfg.ExportPath, payload, 0o644); err != nil {
		return errors.Wrap(err, "write results")
	}
	logger.Info("[ORCH] exported %d cycle records to %s", len(o.results), o.cfg.ExportPath)
	return nil
}
