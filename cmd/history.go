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
	"errors"
	"log"
	"os"
	"time"

	"github.com/rotblauer/bustrack/api"
	"github.com/rotblauer/bustrack/conceptual"
	"github.com/rotblauer/bustrack/render"
	"github.com/spf13/cobra"
)

var optHistoryStart, optHistoryEnd string
var optHistoryFormat string
var optHistorySmooth string
var optHistoryTZ string

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history <bus>",
	Short: "Print a bus's cleaned path",
	Long: `Reads a bus's fixes within a window, drops outliers, optionally smooths,
and prints the path as a timeline, GeoJSON, or JSON.

Opens the data dir read-only; it may be used while the web daemon is stopped.

Examples:

  bustrack history bus1 --start 2024-12-01T00:00:00Z --end 2024-12-02T00:00:00Z
  bustrack history bus1 --format geojson --smooth kalman
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		start, err := parseTimeFlag(optHistoryStart)
		if err != nil {
			log.Fatalln(err)
		}
		end, err := parseTimeFlag(optHistoryEnd)
		if err != nil {
			log.Fatalln(err)
		}
		loc := time.Local
		if optHistoryTZ != "" {
			if loc, err = time.LoadLocation(optHistoryTZ); err != nil {
				log.Fatalln(err)
			}
		}

		svc, err := api.NewService(cmd.Context(), &api.Config{DataDir: dataDir(), ReadOnly: true})
		if err != nil {
			log.Fatalln(err)
		}
		defer svc.Close()

		bus := svc.Bus(conceptual.BusIDFromName(args[0]))
		p, err := bus.History(api.Window{Start: start, End: end}, &api.HistoryOptions{Smoother: optHistorySmooth})
		if err != nil {
			log.Fatalln(err)
		}

		switch optHistoryFormat {
		case "timeline":
			if !p.Sufficient() {
				os.Stdout.WriteString(render.InsufficientMessage + "\n")
				return
			}
			err = render.Timeline(os.Stdout, p.Fixes, loc)
		case "geojson":
			err = render.GeoJSON(os.Stdout, p)
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			err = enc.Encode(api.NewPathView(p))
		default:
			err = errors.New("unknown format: " + optHistoryFormat)
		}
		if err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	flags := historyCmd.Flags()
	flags.StringVar(&optHistoryStart, "start", "", "Window start, epoch ms or RFC3339")
	flags.StringVar(&optHistoryEnd, "end", "", "Window end (inclusive), epoch ms or RFC3339; empty is open")
	flags.StringVar(&optHistoryFormat, "format", "timeline", "Output format: timeline, geojson, json")
	flags.StringVar(&optHistorySmooth, "smooth", "", "Smoother: none, gain, kalman")
	flags.StringVar(&optHistoryTZ, "tz", "", "Timeline time zone, eg. Asia/Kathmandu; default local")
}
