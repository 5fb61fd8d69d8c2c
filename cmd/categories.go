package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/grana/internal/cli"
)

var (
	flagCategoryColor string
	flagCategoryIcon  string
	flagTagsLimit     int
)

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"category"},
	Short:   "List or add transaction categories",
	RunE:    runCategoriesList,
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoriesAdd,
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Most used transaction tags",
	RunE:  runTags,
}

func init() {
	categoriesAddCmd.Flags().StringVar(&flagCategoryColor, "color", "", "Hex color, e.g. #3AA99F")
	categoriesAddCmd.Flags().StringVar(&flagCategoryIcon, "icon", "", "Icon name")
	tagsCmd.Flags().IntVarP(&flagTagsLimit, "limit", "n", 20, "Maximum tags")

	categoriesCmd.AddCommand(categoriesAddCmd)
	rootCmd.AddCommand(categoriesCmd, tagsCmd)
}

func runCategoriesList(cmd *cobra.Command, _ []string) error {
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	cats, err := e.Categories(cmd.Context())
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		kind := "custom"
		if c.IsDefault {
			kind = "default"
		}
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("●")
		rows = append(rows, []string{swatch + " " + c.Name, c.Icon, kind})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Categories",
		Headers:  []string{"Name", "Icon", "Kind"},
		Rows:     rows,
		TextCols: 3,
	}))
	return nil
}

func runCategoriesAdd(cmd *cobra.Command, args []string) error {
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	c, err := e.CreateCategory(cmd.Context(), args[0], flagCategoryColor, flagCategoryIcon)
	if err != nil {
		return err
	}
	fmt.Printf("\n  Added category %q.\n\n", c.Name)
	return nil
}

func runTags(cmd *cobra.Command, _ []string) error {
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	tags, err := e.TagUsage(cmd.Context(), owner(), flagTagsLimit)
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		fmt.Println("\n  No tagged transactions yet.")
		return nil
	}
	rows := make([][]string, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, []string{t.Tag, strconv.Itoa(t.Count)})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Tags",
		Headers: []string{"Tag", "Uses"},
		Rows:    rows,
	}))
	return nil
}
