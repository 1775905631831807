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
	"log"
	"log/slog"

	"github.com/rotblauer/bustrack/api"
	"github.com/rotblauer/bustrack/conceptual"
	"github.com/spf13/cobra"
)

var optPurgeStart, optPurgeEnd string

// purgeCmd represents the purge command
var purgeCmd = &cobra.Command{
	Use:   "purge <bus>",
	Short: "Delete a bus's fixes within a window",
	Long: `Deletes all stored fixes of a bus with timestamps within [start, end].
Without --end the window is open-ended; without either, all history is deleted.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		start, err := parseTimeFlag(optPurgeStart)
		if err != nil {
			log.Fatalln(err)
		}
		end, err := parseTimeFlag(optPurgeEnd)
		if err != nil {
			log.Fatalln(err)
		}
		if end > 0 && end < start {
			log.Fatalln("end before start")
		}

		svc, err := api.NewService(cmd.Context(), &api.Config{DataDir: dataDir()})
		if err != nil {
			log.Fatalln(err)
		}
		defer svc.Close()

		n, err := svc.Bus(conceptual.BusIDFromName(args[0])).DeleteHistory(api.Window{Start: start, End: end})
		if err != nil {
			slog.Error("Purge failed", "error", err)
			return
		}
		slog.Info("Purged", "bus", args[0], "deleted", n)
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)

	flags := purgeCmd.Flags()
	flags.StringVar(&optPurgeStart, "start", "", "Window start, epoch ms or RFC3339")
	flags.StringVar(&optPurgeEnd, "end", "", "Window end (inclusive), epoch ms or RFC3339")
}
