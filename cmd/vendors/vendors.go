// Package vendors holds the vendor alias maintenance commands.
package vendors

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/coastline-livery/charterbooks/cmd/root"
	"github.com/coastline-livery/charterbooks/internal/rules"
	"github.com/coastline-livery/charterbooks/internal/vendor"
)

// Cmd represents the vendors command group.
var Cmd = &cobra.Command{
	Use:   "vendors",
	Short: "Maintain the vendor alias map",
	Long: `List and edit the vendor alias map that folds a bank's many spellings
of one vendor into a single canonical name for matching and categorization.`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every alias and its canonical vendor",
	RunE:  listFunc,
}

var addCmd = &cobra.Command{
	Use:   "add <alias> <canonical>",
	Short: "Map an alias spelling to a canonical vendor",
	Args:  cobra.ExactArgs(2),
	RunE:  addFunc,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(addCmd)
}

func listFunc(cmd *cobra.Command, args []string) error {
	store := rules.NewStore("", "", "")
	aliases, err := store.LoadVendorAliases()
	if err != nil {
		return err
	}
	if len(aliases) == 0 {
		fmt.Println("no vendor aliases defined")
		return nil
	}

	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-40s -> %s\n", k, aliases[k])
	}
	return nil
}

func addFunc(cmd *cobra.Command, args []string) error {
	alias, canonical := args[0], args[1]
	if vendor.Normalize(alias) == "" || vendor.Normalize(canonical) == "" {
		return fmt.Errorf("alias and canonical name must contain something matchable")
	}

	store := rules.NewStore("", "", "")
	aliases, err := store.LoadVendorAliases()
	if err != nil {
		return err
	}
	if existing, ok := aliases[alias]; ok && existing != canonical {
		root.Log.WithField("was", existing).Warn("replacing existing alias mapping")
	}
	aliases[alias] = canonical

	if !root.Flags.Write {
		root.Banner()
		fmt.Printf("would map %q -> %q\n", alias, canonical)
		return nil
	}
	if err := store.SaveVendorAliases(aliases); err != nil {
		return err
	}
	fmt.Printf("mapped %q -> %q\n", alias, canonical)
	return nil
}
