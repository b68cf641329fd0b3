package caltrack

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/caltrack/internal/app"
	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/service"
)

var (
	detectProvider string
	detectChoice   string
	detectKeep     bool
	detectLog      logFlags
)

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Recognize food in a photo and optionally log it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		return withSession(func(sqldb *sql.DB, s *service.Session) error {
			p, err := configuredDetector(cmd.Context(), sqldb, detectProvider)
			if err != nil {
				return err
			}
			found, err := service.DetectFood(cmd.Context(), p, image)
			if err != nil {
				return err
			}
			if detectLog.meal == "" {
				if jsonOut {
					return printJSON(cmd, found)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "#\tFOOD\tCONFIDENCE\tSERVING\tKCAL\tP\tC\tF")
				for i, f := range found {
					fmt.Fprintf(out, "%d\t%s\t%.0f%% (%s)\t%.0f%s\t%.0f\t%.1f\t%.1f\t%.1f\n",
						i+1, f.Name, f.Confidence*100, f.Level, f.ServingSize, f.ServingUnit, f.Calories, f.ProteinG, f.CarbsG, f.FatG)
				}
				return nil
			}

			picked, err := service.SelectCandidate(found, detectChoice)
			if err != nil {
				return err
			}
			opts, err := detectLog.options(s, model.SourceDetected)
			if err != nil {
				return err
			}
			if detectKeep {
				path, err := resolveDBPath()
				if err != nil {
					return err
				}
				ref, err := keepImage(app.ImageDir(path), args[0], image)
				if err != nil {
					return err
				}
				opts.ImageRef = ref
			}
			in, err := service.EntryFromCandidate(picked.Candidate, opts)
			if err != nil {
				return err
			}
			id, err := service.CreateEntry(sqldb, in)
			if err != nil {
				return err
			}
			return showEntry(cmd, sqldb, id, "Logged entry")
		})
	},
}

// keepImage copies the photo next to the database so the entry can refer to
// it after the original is gone.
func keepImage(dir, original string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image directory: %w", err)
	}
	name := time.Now().Format("20060102-150405") + filepath.Ext(original)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return path, nil
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().StringVar(&detectProvider, "provider", "", "mock or rekognition (default from config)")
	detectCmd.Flags().StringVar(&detectChoice, "choice", "", "Candidate to log, by number or name (default the first)")
	detectCmd.Flags().BoolVar(&detectKeep, "keep", false, "Keep a copy of the photo with the entry")
	detectLog.register(detectCmd)
}
