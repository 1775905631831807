/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/bustrack/api"
	"github.com/rotblauer/bustrack/conceptual"
	"github.com/rotblauer/bustrack/gz"
	"github.com/spf13/cobra"
)

var optExportStart, optExportEnd string
var optExportOutput string

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <bus>",
	Short: "Write a bus's stored fixes as NDJSON",
	Long: `Writes the raw stored fixes of a bus within a window, oldest first,
one JSON fix per line. No outlier filtering is applied.

Output goes to stdout, or to --output. Output files ending in .gz are gzipped
and appended to, so the result can be re-imported with 'bustrack import'.

Examples:

  bustrack export bus1 > bus1.ndjson
  bustrack export bus1 --start 2024-12-01T00:00:00Z --output backups/bus1.ndjson.gz
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		start, err := parseTimeFlag(optExportStart)
		if err != nil {
			log.Fatalln(err)
		}
		end, err := parseTimeFlag(optExportEnd)
		if err != nil {
			log.Fatalln(err)
		}

		svc, err := api.NewService(cmd.Context(), &api.Config{DataDir: dataDir(), ReadOnly: true})
		if err != nil {
			log.Fatalln(err)
		}
		defer svc.Close()

		var out io.WriteCloser = os.Stdout
		switch {
		case optExportOutput == "" || optExportOutput == "-":
		case gz.IsGZ(optExportOutput):
			if out, err = gz.NewFileWriter(optExportOutput, nil); err != nil {
				log.Fatalln(err)
			}
			defer out.Close()
		default:
			if out, err = os.Create(optExportOutput); err != nil {
				log.Fatalln(err)
			}
			defer out.Close()
		}

		busID := conceptual.BusIDFromName(args[0])
		fixes, err := svc.Bus(busID).Raw(api.Window{Start: start, End: end})
		if err != nil {
			log.Fatalln(err)
		}
		enc := json.NewEncoder(out)
		for _, f := range fixes {
			if err := enc.Encode(f); err != nil {
				log.Fatalln(err)
			}
		}
		slog.Info("Exported", "bus", busID, "fixes", humanize.Comma(int64(len(fixes))))
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	flags := exportCmd.Flags()
	flags.StringVar(&optExportStart, "start", "", "Window start, epoch ms or RFC3339")
	flags.StringVar(&optExportEnd, "end", "", "Window end (inclusive), epoch ms or RFC3339; empty is open")
	flags.StringVarP(&optExportOutput, "output", "o", "", "Output file; .gz is gzipped; default stdout")
}
