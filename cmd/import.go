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
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/bustrack/api"
	"github.com/rotblauer/bustrack/common"
	"github.com/rotblauer/bustrack/conceptual"
	"github.com/rotblauer/bustrack/gz"
	"github.com/rotblauer/bustrack/params"
	"github.com/rotblauer/bustrack/stream"
	"github.com/rotblauer/bustrack/types"
	"github.com/rotblauer/bustrack/types/fix"
	"github.com/spf13/cobra"
)

var optImportBus string
var optImportExport bool
var optImportBatchSize int
var optImportClean bool

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import bus fixes from a file or stdin",
	Long: `Imports fixes into the data dir.

By default input is a stream of JSON fixes (NDJSON or an array) for one bus,
named with --bus. Files ending in .gz are decompressed.

With --export, input is a realtime database JSON export
holding a BusLocation node of records keyed by bus, then by timestamp.
Records missing their own timestamp take it from their key.
Bus keys are normalized like bus names ("Bus 1" is bus1).

With --clean, outliers are dropped before storing, as history would drop them.

The web daemon must not be running on the same data dir; the store is locked.

Examples:

  bustrack import --bus bus1 < bus1.ndjson
  bustrack import --export backup.json
  bustrack import --bus bus1 bus1.ndjson.gz
`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		var in io.Reader = os.Stdin
		if len(args) == 1 {
			if gz.IsGZ(args[0]) {
				f, err := gz.NewFileReader(args[0])
				if err != nil {
					log.Fatalln(err)
				}
				defer f.Close()
				in = f
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					log.Fatalln(err)
				}
				defer f.Close()
				in = f
			}
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			sig := <-common.Interrupted()
			slog.Warn("Received signal", "signal", sig)
			cancel()
		}()

		svc, err := api.NewService(ctx, &api.Config{DataDir: dataDir()})
		if err != nil {
			log.Fatalln(err)
		}
		defer svc.Close()

		if optImportExport {
			err = importExport(ctx, svc, in)
		} else {
			err = importStream(ctx, svc, in)
		}
		if err != nil {
			log.Fatalln("Import failed:", err)
		}
		slog.Info("Import done")
	},
}

func importStream(ctx context.Context, svc *api.Service, in io.Reader) error {
	busID := conceptual.BusIDFromName(optImportBus)
	if busID.IsEmpty() {
		return errors.New("missing --bus")
	}
	res, err := svc.Bus(busID).PopulateReader(ctx, in, importOptions())
	logImported(busID, res)
	return err
}

func importOptions() *api.ImportOptions {
	return &api.ImportOptions{BatchSize: optImportBatchSize, Clean: optImportClean}
}

func logImported(busID conceptual.BusID, res *api.PopulateResult) {
	if res == nil {
		return
	}
	slog.Info("Imported", "bus", busID, "received", humanize.Comma(int64(res.Received)),
		"stored", humanize.Comma(int64(res.Stored)), "invalid", res.Invalid,
		"deduped", res.Deduped, "rejected", res.Rejected)
}

func importExport(ctx context.Context, svc *api.Service, in io.Reader) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	slog.Info("Read export", "size", humanize.Bytes(uint64(len(data))))
	byBus, err := types.DecodeExport(data)
	if err != nil {
		return err
	}
	ids := make([]conceptual.BusID, 0, len(byBus))
	for id := range byBus {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fixes := byBus[id]
		slices.SortStableFunc(fixes, fix.SortFunc)
		res, err := svc.Bus(id).PopulateStream(ctx, stream.Slice(ctx, fixes), importOptions())
		logImported(id, res)
		if err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(importCmd)

	flags := importCmd.Flags()
	flags.StringVar(&optImportBus, "bus", "", "Bus id (or name, eg. \"Bus 1\") for streamed fixes")
	flags.BoolVar(&optImportExport, "export", false, "Input is a realtime database JSON export")
	flags.IntVar(&optImportBatchSize, "batch-size", params.DefaultImportBatchSize, "Fixes stored per transaction")
	flags.BoolVar(&optImportClean, "clean", false, "Drop outliers before storing; streamed input must be chronological")
}
