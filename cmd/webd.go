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
	"log"
	"log/slog"

	"github.com/rotblauer/bustrack/common"
	"github.com/rotblauer/bustrack/daemon/webd"
	"github.com/rotblauer/bustrack/params"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// webdCmd represents the serve command
var webdCmd = &cobra.Command{
	Use:   "webd",
	Short: "Start the webserver",
	Long: `Serves bus location history over HTTP and websocket.

Write routes (populate, bus details, delete) require the token
when one is set (--token or BUSTRACK_TOKEN).

Optional fan-out of stored fixes:
  --nats-url     publish each fix to <nats-prefix>.<bus>
  --redis-addr   keep last known fixes in a redis hash
  INFLUXDB_URL, INFLUXDB_TOKEN, INFLUXDB_ORG, INFLUXDB_BUCKET export to InfluxDB
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		config := params.DefaultWebDaemonConfig()
		config.DataDir = dataDir()
		config.Network = viper.GetString("network")
		config.Address = viper.GetString("address")
		config.Token = viper.GetString("token")
		config.Sinks = &params.SinksConfig{
			NATSURL:           viper.GetString("nats-url"),
			NATSSubjectPrefix: viper.GetString("nats-prefix"),
			RedisAddr:         viper.GetString("redis-addr"),
			RedisPassword:     viper.GetString("redis-password"),
			RedisDB:           viper.GetInt("redis-db"),
			RedisKey:          viper.GetString("redis-key"),
		}
		config.Influx = params.InfluxConfigFromEnv()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			sig := <-common.Interrupted()
			slog.Warn("Received signal", "signal", sig)
			cancel()
		}()

		server, err := webd.NewWebDaemon(ctx, config)
		if err != nil {
			log.Fatalln(err)
		}
		defer server.Close()

		slog.Info("webd.Run", "datadir", config.DataDir)
		if err := server.Run(ctx); err != nil {
			slog.Error("Web daemon exited", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(webdCmd)

	defaults := params.DefaultWebDaemonConfig()

	pFlags := webdCmd.PersistentFlags()
	pFlags.String("network", defaults.Network, "Network to listen on (tcp, tcp4, tcp6, unix)")
	pFlags.String("address", defaults.Address, "HTTP address to listen on")
	pFlags.String("token", defaults.Token, "Token required by write routes")
	pFlags.String("nats-url", "", "NATS server URL, eg. nats://localhost:4222")
	pFlags.String("nats-prefix", params.DefaultNATSSubjectPrefix, "NATS subject prefix")
	pFlags.String("redis-addr", "", "Redis address, eg. localhost:6379")
	pFlags.String("redis-password", "", "Redis password")
	pFlags.Int("redis-db", 0, "Redis database")
	pFlags.String("redis-key", params.DefaultRedisKey, "Redis hash for last known fixes")

	pFlags.VisitAll(func(f *pflag.Flag) {
		if err := viper.BindPFlag(f.Name, f); err != nil {
			panic(err)
		}
	})
}
