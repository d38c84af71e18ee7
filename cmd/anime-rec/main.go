// Copyright 2024 Anime Recommendation System Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Dawit-Bonga/Anime-Recommendation-System/base/log"
)

var versionName = "0.2.0"

var rootCmd = &cobra.Command{
	Use:   "anime-rec",
	Short: "anime-rec: hybrid anime recommendation engine",
	Long: "anime-rec recommends anime titles from a reference title or a watchlist,\n" +
		"combining collaborative filtering over historical ratings with a genre\n" +
		"based fallback for cold-start titles.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			_ = cmd.Help()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Check the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(versionName)
	},
}

func main() {
	rootCmd.PersistentFlags().String("config", "", "path of configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug log")
	log.AddFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(commandTrain)
	rootCmd.AddCommand(commandServe)
	rootCmd.AddCommand(versionCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Logger().Fatal("failed to execute command", zap.Error(err))
	}
}
