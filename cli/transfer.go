package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/frankonly/zkmerkle/crypto"
	"github.com/frankonly/zkmerkle/data"
	"github.com/frankonly/zkmerkle/transition"
)

var (
	witnessPath string
	proveAfter  bool
	rawLeaves   bool
)

var (
	transferCmd = &cobra.Command{
		Use:   "transfer SENDER RECEIVER SENDER_VALUE RECEIVER_VALUE",
		Short: "Update the sender and then the receiver leaf, and write the witness of the transition",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			sender, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid sender %s: %w", args[0], err)
			}
			receiver, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid receiver %s: %w", args[1], err)
			}

			env, err := setup()
			if err != nil {
				return err
			}

			senderLeaf, err := env.parseLeaf(args[2])
			if err != nil {
				return fmt.Errorf("sender value: %w", err)
			}
			receiverLeaf, err := env.parseLeaf(args[3])
			if err != nil {
				return fmt.Errorf("receiver value: %w", err)
			}

			var targets []string
			if witnessPath != "" {
				targets = append(targets, data.Path(witnessPath))
			}
			if proveAfter || witnessPath == "" {
				p, err := env.cfg.Prover.Prover(env.logger)
				if err != nil {
					return err
				}
				targets = append(targets, p.WitnessInput())
			}

			svc, err := env.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			w, err := svc.Transfer(transition.Transfer{
				Sender:        sender,
				Receiver:      receiver,
				SenderValue:   senderLeaf,
				ReceiverValue: receiverLeaf,
			})
			if err != nil {
				return err
			}

			for _, target := range targets {
				if err := w.WriteFile(target); err != nil {
					return fmt.Errorf("write witness: %w", err)
				}
			}

			if proveAfter {
				if err := prove(cmd.Context(), env); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "old root:         ", w.OldRoot)
			_, _ = fmt.Fprintln(out, "intermediate root:", w.IntermediateRoot)
			_, _ = fmt.Fprintln(out, "new root:         ", w.NewRoot)
			for _, target := range targets {
				_, _ = fmt.Fprintln(out, "witness:          ", target)
			}
			return nil
		},
	}

	proveCmd = &cobra.Command{
		Use:   "prove",
		Short: "Generate a proof from the witness in the circuit directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}

			return prove(cmd.Context(), env)
		},
	}
)

func prove(ctx context.Context, env *environment) error {
	if ctx == nil {
		ctx = context.Background()
	}

	p, err := env.cfg.Prover.Prover(env.logger)
	if err != nil {
		return err
	}

	return p.Prove(ctx)
}

// parseLeaf reads a command line value and turns it into a leaf.
func (e *environment) parseLeaf(s string) ([]byte, error) {
	if rawLeaves {
		return crypto.DecodeHex(s)
	}

	value, err := crypto.ParseValue(s)
	if err != nil {
		return nil, err
	}

	return e.leaf(value)
}
