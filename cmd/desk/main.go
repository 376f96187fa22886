// Command desk is the doctor's prescription desk. It drives the patient and
// medicine pickers against a running search service from a terminal.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/giygas/lighthospital/config"
	"github.com/giygas/lighthospital/logging"
	"github.com/giygas/lighthospital/prescription"
	"github.com/giygas/lighthospital/searchclient"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	var (
		doctor   string
		apiBase  string
		debounce time.Duration
	)

	rootCmd := &cobra.Command{
		Use:          "desk",
		Short:        "Prescription desk with patient and medicine autocomplete",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDesk()
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			if cmd.Flags().Changed("api") {
				cfg.APIBase = strings.TrimRight(apiBase, "/")
			}
			if cmd.Flags().Changed("debounce") {
				cfg.Debounce = debounce
			}

			logging.InitLogger(logging.Options{
				Dir:     cfg.LogDir,
				Prefix:  "desk",
				Level:   cfg.LogLevel,
				Console: cmd.ErrOrStderr(),
			})
			defer logging.Close()

			return runDesk(cfg, doctor, in, out)
		},
	}

	rootCmd.Flags().StringVar(&doctor, "doctor", os.Getenv("USER"), "prescribing doctor")
	rootCmd.Flags().StringVar(&apiBase, "api", "", "search service base URL (overrides DESK_API_BASE)")
	rootCmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "quiet period before a lookup (overrides DESK_DEBOUNCE_MS)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the desk version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "desk", version)
		},
	})

	return rootCmd
}

var version = "dev"

func runDesk(cfg *config.DeskConfig, doctor string, in io.Reader, out io.Writer) error {
	client, err := searchclient.NewSessionClient(cfg.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}
	sc := searchclient.Config{BaseURL: cfg.APIBase, Client: client}

	logging.Info("Desk started", "api", cfg.APIBase, "doctor", doctor, "debounce", cfg.Debounce)

	d := newDesk(out, prescription.Options{
		Doctor:    doctor,
		Medicines: searchclient.NewMedicineSearcher(sc),
		Patients:  searchclient.NewPatientSearcher(sc),
		Debounce:  cfg.Debounce,
	})
	fmt.Fprintf(d.out, "desk ready for %s, :help lists commands\n", doctor)
	return d.run(in)
}
