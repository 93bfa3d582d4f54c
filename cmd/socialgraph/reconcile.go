package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/socialgraph/internal/service"
)

var reconcileTimeout time.Duration

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [uid...]",
	Short: "Recompute follower/following counters from the relation sets",
	Long: `reconcile compares every user's followers/following counters with the
cardinality of the matching sets and corrects drift. With uid arguments only
those users are checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		ctx, cancel := withTimeout(reconcileTimeout)
		defer cancel()

		r := service.NewCounterReconciler(a.users, 1)
		if len(args) == 0 {
			n, err := r.ReconcileAll(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "corrected %d users\n", n)
			return nil
		}
		fixed := 0
		for _, uid := range args {
			changed, err := r.Reconcile(ctx, uid)
			if err != nil {
				return fmt.Errorf("reconcile %s: %w", uid, err)
			}
			if changed {
				fixed++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "corrected %d of %d users\n", fixed, len(args))
		return nil
	},
}

func init() {
	reconcileCmd.Flags().DurationVar(&reconcileTimeout, "timeout", 10*time.Minute, "overall deadline")
}
