package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/gridchronics/config"
	"github.com/kilianp07/gridchronics/core/validate"
	"github.com/kilianp07/gridchronics/infra/logger"
	"github.com/kilianp07/gridchronics/pkg/export"
)

var validateCmd = &cobra.Command{
	Use:   "validate <chronic.json>",
	Short: "Re-check an exported chronic against the network model",
	Args:  cobra.ExactArgs(1),
	RunE:  validateChronic,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateChronic(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	net, err := config.LoadNetwork(cfg.Network)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	chronic, err := export.ReadJSON(f)
	if err != nil {
		return fmt.Errorf("read chronic: %w", err)
	}

	report, err := validate.Check(net, chronic, cfg.Validation)
	if err != nil {
		return err
	}
	logg := logger.New("validate-command")
	logg.Infof("%s", report)
	if cfg.Validation.Strict {
		return report.AsError()
	}
	return nil
}
