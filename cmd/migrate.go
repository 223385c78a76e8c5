// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/LeeDigitalWorks/zapgw/pkg/env"
	"github.com/LeeDigitalWorks/zapgw/pkg/logger"
	"github.com/LeeDigitalWorks/zapgw/pkg/utils"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply metadata schema migrations and exit",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	f := migrateCmd.Flags()
	addDatabaseFlags(f)
	viper.BindPFlags(f)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	utils.LoadConfiguration("gateway", false)
	env.Load()

	store, err := initializeDatabase(loadDatabaseOpts(NewFlagLoader(cmd)))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(cmd.Context()); err != nil {
		return err
	}
	logger.Info().Msg("metadata schema is up to date")
	return nil
}
