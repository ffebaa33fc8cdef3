package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/frankonly/zkmerkle/api"
	"github.com/frankonly/zkmerkle/crypto"
)

const requestTimeout = time.Second * 3

var updateLeaf bool

func parseIndex(s string) (uint64, error) {
	index, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid index %s: %w", s, err)
	}

	return index, nil
}

var (
	rootHashCmd = &cobra.Command{
		Use:   "root",
		Short: "Get the current root from the zkmerkle server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()

			root, err := Client().Root(ctx, &emptypb.Empty{})
			if err == nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), crypto.EncodeHex(root.GetValue()))
			}

			return err
		},
	}

	leafCmd = &cobra.Command{
		Use:   "leaf INDEX",
		Short: "Get a leaf from the zkmerkle server by index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()

			leaf, err := Client().Leaf(ctx, wrapperspb.UInt64(index))
			if err == nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), crypto.EncodeHex(leaf.GetValue()))
			}

			return err
		},
	}

	pathCmd = &cobra.Command{
		Use:   "path INDEX",
		Short: "Get the authentication path of a leaf from the zkmerkle server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()

			path, err := Client().Path(ctx, wrapperspb.UInt64(index))
			if err != nil {
				return err
			}

			for _, node := range path.GetValues() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), node.GetStringValue())
			}
			return nil
		},
	}

	updateCmd = &cobra.Command{
		Use:   "update INDEX VALUE",
		Short: "Set a leaf on the zkmerkle server and print the new root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			req := api.UpdateRequest(index, nil, args[1])
			if updateLeaf {
				leaf, err := crypto.DecodeHex(args[1])
				if err != nil {
					return fmt.Errorf("invalid leaf %s: %w", args[1], err)
				}
				req = api.UpdateRequest(index, leaf, "")
			}

			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()

			root, err := Client().Update(ctx, req)
			if err == nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), crypto.EncodeHex(root.GetValue()))
			}

			return err
		},
	}

	rebuildCmd = &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute the tree on the zkmerkle server after a failed update",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()

			root, err := Client().Rebuild(ctx, &emptypb.Empty{})
			if err == nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), crypto.EncodeHex(root.GetValue()))
			}

			return err
		},
	}
)
