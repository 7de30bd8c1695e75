package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lexbridge/internal/adapter/bff"
)

func newPlaybooksCmd(opts *rootOpts) *cobra.Command {
	var nameFilter string

	cmd := &cobra.Command{
		Use:   "playbooks",
		Short: "List server-defined playbooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, closeLog, token, err := loadEnv(opts)
			if err != nil {
				return err
			}
			defer closeLog()

			client := bff.NewClient(cfg.BFF.BaseURL, token, log)
			playbooks, err := client.Playbooks(cmd.Context(), nameFilter)
			if err != nil {
				return err
			}
			if len(playbooks) == 0 {
				fmt.Println("no playbooks")
				return nil
			}
			for _, p := range playbooks {
				visibility := "private"
				if p.IsPublic {
					visibility = "public"
				}
				fmt.Printf("%s  %s  (%s)\n", p.ID, p.Name, visibility)
				if p.Description != "" {
					fmt.Printf("    %s\n", p.Description)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&nameFilter, "name", "", "filter playbooks by name")
	return cmd
}
