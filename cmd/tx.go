package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/grana/internal/cli"
	"github.com/theirongolddev/grana/internal/engine"
	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
)

var (
	flagTxKind     string
	flagTxAccount  string
	flagTxCard     string
	flagTxAmount   string
	flagTxDesc     string
	flagTxCategory string
	flagTxDate     string
	flagTxTags     string

	flagListKind    string
	flagListAccount string
	flagListCard    string
	flagListFrom    string
	flagListTo      string
	flagListLimit   int
)

var txCmd = &cobra.Command{
	Use:     "tx",
	Aliases: []string{"transaction", "transactions"},
	Short:   "Record and browse transactions",
	RunE:    runTxList,
}

var txAddCmd = &cobra.Command{
	Use:   "add <amount> <description>",
	Short: "Record an income or expense",
	Long: "Record an income or expense against an account (--account) or a credit card (--card).\n" +
		"Without either, the owner's Cash account is used.",
	Args: cobra.ExactArgs(2),
	RunE: runTxAdd,
}

var txEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runTxEdit,
}

var txRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a transaction and restore balances",
	Args:    cobra.ExactArgs(1),
	RunE:    runTxRm,
}

var txListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent transactions",
	RunE:  runTxList,
}

var txShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runTxShow,
}

func init() {
	for _, c := range []*cobra.Command{txAddCmd, txEditCmd} {
		c.Flags().StringVarP(&flagTxKind, "kind", "k", "expense", "income or expense")
		c.Flags().StringVar(&flagTxAccount, "account", "", "Account name or id")
		c.Flags().StringVar(&flagTxCard, "card", "", "Credit card name or id")
		c.Flags().StringVarP(&flagTxCategory, "category", "c", "", "Category name")
		c.Flags().StringVarP(&flagTxDate, "date", "d", "", "Date as YYYY-MM-DD (default today)")
		c.Flags().StringVarP(&flagTxTags, "tags", "t", "", "Comma-separated tags")
		c.MarkFlagsMutuallyExclusive("account", "card")
	}
	txEditCmd.Flags().StringVar(&flagTxAmount, "amount", "", "New amount")
	txEditCmd.Flags().StringVar(&flagTxDesc, "desc", "", "New description")

	txListCmd.Flags().StringVarP(&flagListKind, "kind", "k", "", "Only income, expense or transfer")
	txListCmd.Flags().StringVar(&flagListAccount, "account", "", "Only this account")
	txListCmd.Flags().StringVar(&flagListCard, "card", "", "Only this card")
	txListCmd.Flags().StringVar(&flagListFrom, "from", "", "Earliest date, YYYY-MM-DD")
	txListCmd.Flags().StringVar(&flagListTo, "to", "", "Latest date, YYYY-MM-DD")
	txListCmd.Flags().IntVarP(&flagListLimit, "limit", "n", 20, "Maximum rows (0 for all)")
	txCmd.Flags().AddFlagSet(txListCmd.Flags())

	txCmd.AddCommand(txAddCmd, txEditCmd, txRmCmd, txListCmd, txShowCmd)
	rootCmd.AddCommand(txCmd)
}

// via resolves --account/--card into an instrument, or nil when neither is set.
func via(ctx context.Context, e *engine.Engine) (model.Instrument, error) {
	switch {
	case flagTxAccount != "":
		a, err := resolveAccount(ctx, e, flagTxAccount)
		if err != nil {
			return nil, err
		}
		return model.AccountRef{AccountID: a.ID}, nil
	case flagTxCard != "":
		c, err := resolveCard(ctx, e, flagTxCard)
		if err != nil {
			return nil, err
		}
		return model.CardRef{CardID: c.ID}, nil
	}
	return nil, nil
}

func movement(kind model.Kind, v model.Instrument) (model.Movement, error) {
	switch kind {
	case model.KindIncome:
		return model.Income{Via: v}, nil
	case model.KindExpense:
		return model.Expense{Via: v}, nil
	}
	return nil, model.Invalid("kind", "use `grana transfer` to move money between accounts")
}

func runTxAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	kind, err := model.ParseKind(flagTxKind)
	if err != nil {
		return err
	}
	amount, err := parseAmount("amount", args[0])
	if err != nil {
		return err
	}

	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	v, err := via(ctx, e)
	if err != nil {
		return err
	}
	if v == nil {
		cash, err := e.Bootstrap(ctx, owner())
		if err != nil {
			return err
		}
		v = model.AccountRef{AccountID: cash.ID}
	}
	m, err := movement(kind, v)
	if err != nil {
		return err
	}
	date, err := parseDate(e, flagTxDate)
	if err != nil {
		return err
	}
	category, err := resolveCategory(ctx, e, flagTxCategory)
	if err != nil {
		return err
	}

	tx, err := e.CreateTransaction(ctx, owner(), model.TransactionInput{
		Movement:    m,
		Amount:      amount,
		Description: args[1],
		CategoryID:  category,
		Date:        date,
		Tags:        parseTags(flagTxTags),
	})
	if err != nil {
		return err
	}
	log(cmd).Debug().Str("tx", tx.ID.String()).Str("kind", string(kind)).Msg("transaction recorded")
	fmt.Printf("\n  Recorded %s %s %q (%s).\n\n", kind, cli.FormatMoney(tx.Amount), tx.Description, cli.ShortID(tx.ID))
	return nil
}

func runTxEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	id, err := resolveTransaction(ctx, e, args[0])
	if err != nil {
		return err
	}
	old, err := e.Transaction(ctx, id)
	if err != nil {
		return err
	}

	in := model.TransactionInput{
		Movement:    old.Movement,
		Amount:      old.Amount,
		Description: old.Description,
		CategoryID:  &old.CategoryID,
		Date:        old.Date,
		Tags:        old.Tags,
	}
	flags := cmd.Flags()
	if flags.Changed("kind") || flags.Changed("account") || flags.Changed("card") {
		if old.Kind() == model.KindTransfer {
			return model.Invalid("movement", "a transfer's accounts cannot be changed; delete it and transfer again")
		}
		kind := old.Kind()
		if flags.Changed("kind") {
			if kind, err = model.ParseKind(flagTxKind); err != nil {
				return err
			}
		}
		v, err := via(ctx, e)
		if err != nil {
			return err
		}
		if v == nil {
			v = viaOf(old.Movement)
		}
		if in.Movement, err = movement(kind, v); err != nil {
			return err
		}
	}
	if flags.Changed("amount") {
		if in.Amount, err = parseAmount("amount", flagTxAmount); err != nil {
			return err
		}
	}
	if flags.Changed("desc") {
		in.Description = flagTxDesc
	}
	if flags.Changed("category") {
		if in.CategoryID, err = resolveCategory(ctx, e, flagTxCategory); err != nil {
			return err
		}
	}
	if flags.Changed("date") {
		if in.Date, err = parseDate(e, flagTxDate); err != nil {
			return err
		}
	}
	if flags.Changed("tags") {
		in.Tags = parseTags(flagTxTags)
	}

	tx, err := e.UpdateTransaction(ctx, id, in)
	if err != nil {
		return err
	}
	fmt.Printf("\n  Updated %s: %s %q on %s.\n\n", cli.ShortID(tx.ID), cli.FormatMoney(tx.Amount), tx.Description, cli.FormatDate(tx.Date))
	return nil
}

func viaOf(m model.Movement) model.Instrument {
	switch m := m.(type) {
	case model.Income:
		return m.Via
	case model.Expense:
		return m.Via
	}
	return nil
}

func runTxRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	id, err := resolveTransaction(ctx, e, args[0])
	if err != nil {
		return err
	}
	if err := e.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	fmt.Printf("\n  Deleted transaction %s.\n\n", cli.ShortID(id))
	return nil
}

func runTxList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	f := model.TransactionFilter{Owner: owner(), Limit: flagListLimit}
	if flagListKind != "" {
		if f.Kind, err = model.ParseKind(flagListKind); err != nil {
			return err
		}
	}
	if flagListAccount != "" {
		a, err := resolveAccount(ctx, e, flagListAccount)
		if err != nil {
			return err
		}
		f.AccountID = a.ID
	}
	if flagListCard != "" {
		c, err := resolveCard(ctx, e, flagListCard)
		if err != nil {
			return err
		}
		f.CardID = c.ID
	}
	if flagListFrom != "" {
		if f.From, err = parseDate(e, flagListFrom); err != nil {
			return err
		}
	}
	if flagListTo != "" {
		if f.To, err = parseDate(e, flagListTo); err != nil {
			return err
		}
	}

	txs, err := e.Transactions(ctx, f)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Println("\n  No transactions found.")
		return nil
	}

	names, err := loadNames(ctx, e)
	if err != nil {
		return err
	}

	var in, out money.Amount
	rows := make([][]string, 0, len(txs)+2)
	for _, t := range txs {
		amount := t.Amount
		switch t.Kind() {
		case model.KindIncome:
			in += amount
		case model.KindExpense:
			out += amount
			amount = -amount
		}
		rows = append(rows, []string{
			cli.FormatDate(t.Date),
			cli.ShortID(t.ID),
			cli.Truncate(t.Description, 32),
			names.category(t.CategoryID),
			names.movement(t.Movement),
			cli.FormatSigned(amount),
		})
	}
	rows = append(rows, []string{"---"},
		[]string{"Net", "", fmt.Sprintf("in %s, out %s", cli.FormatMoney(in), cli.FormatMoney(out)), "", "", cli.FormatSigned(in - out)})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Transactions",
		Headers:  []string{"Date", "ID", "Description", "Category", "Via", "Amount"},
		Rows:     rows,
		TextCols: 5,
	}))
	return nil
}

func runTxShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	id, err := resolveTransaction(ctx, e, args[0])
	if err != nil {
		return err
	}
	t, err := e.Transaction(ctx, id)
	if err != nil {
		return err
	}
	names, err := loadNames(ctx, e)
	if err != nil {
		return err
	}

	tags := strings.Join(t.Tags, ", ")
	if tags == "" {
		tags = "-"
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title: "Transaction " + cli.ShortID(t.ID),
		Rows: [][]string{
			{"ID", t.ID.String()},
			{"Kind", string(t.Kind())},
			{"Amount", cli.FormatMoney(t.Amount)},
			{"Description", t.Description},
			{"Category", names.category(t.CategoryID)},
			{"Via", names.movement(t.Movement)},
			{"Date", cli.FormatDate(t.Date)},
			{"Tags", tags},
			{"---"},
			{"Created", t.CreatedAt.Local().Format("2006-01-02 15:04")},
			{"Updated", t.UpdatedAt.Local().Format("2006-01-02 15:04")},
		},
		TextCols: 2,
	}))
	return nil
}

// names maps ids to display names for listings.
type names struct {
	categories map[uuid.UUID]string
	accounts   map[uuid.UUID]string
	cards      map[uuid.UUID]string
}

func loadNames(ctx context.Context, e *engine.Engine) (names, error) {
	n := names{
		categories: map[uuid.UUID]string{},
		accounts:   map[uuid.UUID]string{},
		cards:      map[uuid.UUID]string{},
	}
	cats, err := e.Categories(ctx)
	if err != nil {
		return n, err
	}
	for _, c := range cats {
		n.categories[c.ID] = c.Name
	}
	accounts, err := e.Accounts(ctx, owner())
	if err != nil {
		return n, err
	}
	for _, a := range accounts {
		n.accounts[a.ID] = a.Name
	}
	cards, err := e.Cards(ctx, owner())
	if err != nil {
		return n, err
	}
	for _, c := range cards {
		n.cards[c.ID] = c.Name
	}
	return n, nil
}

func (n names) category(id uuid.UUID) string {
	if name, ok := n.categories[id]; ok {
		return name
	}
	return cli.ShortID(id)
}

func (n names) account(id uuid.UUID) string {
	if name, ok := n.accounts[id]; ok {
		return name
	}
	return cli.ShortID(id)
}

func (n names) movement(m model.Movement) string {
	switch m := m.(type) {
	case model.Transfer:
		return n.account(m.From) + " → " + n.account(m.To)
	default:
		switch v := viaOf(m).(type) {
		case model.AccountRef:
			return n.account(v.AccountID)
		case model.CardRef:
			if name, ok := n.cards[v.CardID]; ok {
				return name + " (card)"
			}
			return cli.ShortID(v.CardID) + " (card)"
		}
	}
	return "-"
}
