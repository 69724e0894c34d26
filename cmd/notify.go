package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"nryli/internal/dto"
	"nryli/internal/repo"
)

func newNotifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify <registration-id>",
		Short: "Send the confirmation email for one registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.Close()

			notifier, err := a.notifier()
			if err != nil {
				return err
			}

			ctx, cancel := a.storeContext(cmd.Context())
			defer cancel()
			reg, err := a.repo.GetByRegistrationID(ctx, args[0])
			if errors.Is(err, repo.ErrNotFound) {
				return fmt.Errorf("registration %s not found", args[0])
			}
			if err != nil {
				return err
			}

			res := notifier.Notify(cmd.Context(), *reg)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(dto.NotifyResponse{RegistrationID: reg.RegistrationID, Result: res}); err != nil {
				return err
			}
			if !res.Success {
				return errors.New(res.Error)
			}
			return nil
		},
	}
}
