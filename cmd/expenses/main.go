// Command expenses is a terminal client for the expenses tracker
// backend: sign in once, then manage expenses and categories and view
// spending statistics from the shell.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/api"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/auth"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/category"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/creds"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/expense"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/internal/config"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/sessions"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/statistics"
)

const usage = `Usage: expenses <command> [flags]

Commands:
  login       -email -password
  register    -email -password -first -last [-dob] [-pob]
  logout
  whoami
  expenses    list | add -amount -desc -category [-date] | rm -id
  categories  list | add -name [-desc]
  stats       summary | by-category | trends | top [-limit]
`

type app struct {
	auth       *auth.Service
	session    *sessions.Resolver
	expenses   *expense.Service
	categories *category.Service
	stats      *statistics.Service
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		if apiErr := api.AsError(err); apiErr != nil && len(apiErr.Details) > 0 {
			fmt.Fprintf(os.Stderr, "Error: %s\n", apiErr.Message)
			for field, msgs := range apiErr.Details {
				for _, msg := range msgs {
					fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
				}
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

func newApp(c config.Config) (*app, error) {
	credentialsFile := c.GetCredentialsFile()
	if credentialsFile == "" {
		path, err := creds.DefaultPath("expenses-tracker")
		if err != nil {
			return nil, err
		}
		credentialsFile = path
	}
	store, err := creds.NewFileStore(credentialsFile)
	if err != nil {
		return nil, err
	}
	resolver, err := sessions.NewResolver(store)
	if err != nil {
		return nil, err
	}

	options := []api.Option{
		api.WithTimeout(c.GetRequestTimeout()),
		api.WithSessionInvalidatedHook(func() { resolver.Publish(nil) }),
	}
	if c.GetEnv() == "DEV" {
		options = append(options, api.WithDebugLogging())
	}
	client, err := api.New(c.GetAPIBaseURL(), store, options...)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(client, store, resolver)
	if err != nil {
		return nil, err
	}
	expenseService, err := expense.NewService(client)
	if err != nil {
		return nil, err
	}
	categoryService, err := category.NewService(client)
	if err != nil {
		return nil, err
	}
	statsService, err := statistics.NewService(client)
	if err != nil {
		return nil, err
	}
	return &app{
		auth:       authService,
		session:    resolver,
		expenses:   expenseService,
		categories: categoryService,
		stats:      statsService,
	}, nil
}

func run(command string, args []string) error {
	a, err := newApp(config.New())
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch command {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "logout":
		return a.auth.Logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "expenses":
		return a.runExpenses(ctx, args)
	case "categories":
		return a.runCategories(ctx, args)
	case "stats":
		return a.runStats(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	remember := fs.Bool("remember", false, "remember these credentials")
	_ = fs.Parse(args)

	if err := auth.NewValidator().ValidateCredentials(*email, *password); err != nil {
		return err
	}
	session, err := a.auth.Login(ctx, auth.LoginRequest{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	if *remember {
		if err := a.auth.SaveCredentials(ctx, auth.SavedCredentials{Email: *email, Password: *password}); err != nil {
			log.Warn().Err(err).Msg("could not save credentials")
		}
	}
	fmt.Printf("Signed in as %s\n", session.User.FullName())
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	dob := fs.String("dob", "", "date of birth (YYYY-MM-DD)")
	pob := fs.String("pob", "", "place of birth")
	_ = fs.Parse(args)

	req := auth.SignupRequest{
		FirstName:    *first,
		LastName:     *last,
		Email:        *email,
		Password:     *password,
		DateOfBirth:  *dob,
		PlaceOfBirth: *pob,
	}
	if err := auth.NewValidator().ValidateSignup(req); err != nil {
		return err
	}
	session, err := a.auth.Register(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("Welcome, %s\n", session.User.FullName())
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	user, err := a.session.Resolve(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Println("Not signed in")
		return nil
	}
	fmt.Printf("%s <%s>", user.FullName(), user.Email)
	if user.IsVerified {
		fmt.Print(" (verified)")
	}
	fmt.Println()
	return nil
}

func (a *app) runExpenses(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		expenses, err := a.expenses.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tDESCRIPTION")
		for _, e := range expenses {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", e.ID, e.Date, e.Amount, e.Description)
		}
		return tw.Flush()
	case "add":
		fs := flag.NewFlagSet("expenses add", flag.ExitOnError)
		amount := fs.Float64("amount", 0, "expense amount")
		desc := fs.String("desc", "", "description")
		categoryID := fs.String("category", "", "category id")
		date := fs.String("date", "", "ISO date, today when empty")
		_ = fs.Parse(args[1:])
		if *date == "" {
			*date = time.Now().Format("2006-01-02")
		}
		created, err := a.expenses.Create(ctx, expense.CreateRequest{
			Amount:      *amount,
			Description: *desc,
			Category:    *categoryID,
			Date:        *date,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created expense %s\n", created.ID)
		return nil
	case "rm":
		fs := flag.NewFlagSet("expenses rm", flag.ExitOnError)
		id := fs.String("id", "", "expense id")
		_ = fs.Parse(args[1:])
		return a.expenses.Delete(ctx, *id)
	default:
		return fmt.Errorf("unknown expenses subcommand %q", args[0])
	}
}

func (a *app) runCategories(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		categories, err := a.categories.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tEXPENSES\tDESCRIPTION")
		for _, c := range categories {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c.ID, c.Name, len(c.ListOfExpenses), c.Description)
		}
		return tw.Flush()
	case "add":
		fs := flag.NewFlagSet("categories add", flag.ExitOnError)
		name := fs.String("name", "", "category name")
		desc := fs.String("desc", "", "description")
		_ = fs.Parse(args[1:])
		created, err := a.categories.Create(ctx, category.CreateRequest{Name: *name, Description: *desc})
		if err != nil {
			return err
		}
		fmt.Printf("Created category %s\n", created.ID)
		return nil
	default:
		return fmt.Errorf("unknown categories subcommand %q", args[0])
	}
}

func (a *app) runStats(ctx context.Context, args []string) error {
	sub := "summary"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "summary":
		summary, err := a.stats.Summary(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Expenses: %d\nTotal: %.2f\nAverage: %.2f\nCategories: %d\n",
			summary.TotalExpenses, summary.TotalAmount, summary.AverageExpense, summary.CategoryCount)
		return nil
	case "by-category":
		rows, err := a.stats.ByCategory(ctx)
		if err != nil {
			return err
		}
		for _, row := range rows {
			fmt.Printf("%-24s %10.2f\n", row.Category.Name, row.TotalAmount)
		}
		return nil
	case "trends":
		rows, err := a.stats.MonthlyTrends(ctx)
		if err != nil {
			return err
		}
		for _, row := range rows {
			fmt.Printf("%04d-%02d %10.2f (%d expenses)\n", row.Period.Year, row.Period.Month, row.TotalAmount, row.Count)
		}
		return nil
	case "top":
		fs := flag.NewFlagSet("stats top", flag.ExitOnError)
		limit := fs.Int("limit", 5, "number of categories")
		_ = fs.Parse(args[1:])
		rows, err := a.stats.TopCategories(ctx, *limit)
		if err != nil {
			return err
		}
		for i, row := range rows {
			fmt.Printf("%d. %-24s %10.2f (%d expenses)\n", i+1, row.Category.Name, row.TotalAmount, row.Count)
		}
		return nil
	default:
		return fmt.Errorf("unknown stats subcommand %q", sub)
	}
}
