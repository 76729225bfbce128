package commands

import (
	"fmt"

	"holder-map/internal/domain"
	storage "holder-map/internal/infra/fs"

	"github.com/spf13/cobra"
)

var vestingToken string

var vestingCmd = &cobra.Command{
	Use:   "vesting",
	Short: "Manage the vesting contract registry",
}

var vestingAddCmd = &cobra.Command{
	Use:   "add <address>",
	Short: "Mark an address as a vesting contract (global unless --token)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return storage.AddVesting(appCfg.Vesting.File, vestingScope(), domain.Address(args[0]))
	},
}

var vestingRemoveCmd = &cobra.Command{
	Use:   "remove <address>",
	Short: "Unmark a vesting contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return storage.RemoveVesting(appCfg.Vesting.File, vestingScope(), domain.Address(args[0]))
	},
}

var vestingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vesting contracts that apply to --token (or the global list)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if vestingToken == "" {
			list, err := storage.LoadVestingList(appCfg.Vesting.File)
			if err != nil {
				return err
			}
			for _, a := range list.Global {
				fmt.Println(a)
			}
			return nil
		}
		set, err := storage.LoadVesting(appCfg.Vesting.File, vestingScope())
		if err != nil {
			return err
		}
		for a := range set {
			fmt.Println(a)
		}
		return nil
	},
}

func vestingScope() domain.Address {
	if vestingToken == "" {
		return ""
	}
	return domain.NormalizeAddress(vestingToken)
}

func init() {
	vestingCmd.PersistentFlags().StringVar(&vestingToken, "token", "", "token the entry applies to")
	vestingCmd.AddCommand(vestingAddCmd, vestingRemoveCmd, vestingListCmd)
}
