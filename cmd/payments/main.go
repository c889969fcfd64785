// Command payments is a CLI for the payments API. It reads the service
// location from PAYMENTS_API_URL and authenticates with PAYMENTS_API_KEY.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/castlepay/payments/internal/client"
)

const usage = `Usage: payments <command> [arguments]

Commands:
  health                                check service health
  bootstrap -name <name>                create the first API key
  account create|get|list               manage accounts
  transaction deposit|withdraw|transfer|get|list
                                        move money and inspect transactions
  webhook register|list                 manage webhook endpoints
  key create|list|delete                manage API keys (admin)
  rates -base <currency>                show exchange rates (admin)
  convert -from <c> -to <c> -amount <n> convert between currencies (admin)

Environment:
  PAYMENTS_API_URL   service base URL (default http://localhost:3000)
  PAYMENTS_API_KEY   API key for authenticated commands
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	baseURL := os.Getenv("PAYMENTS_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	c := client.New(baseURL, os.Getenv("PAYMENTS_API_KEY"))

	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "health":
		err = healthCmd(ctx, c)
	case "bootstrap":
		err = bootstrapCmd(ctx, c, os.Args[2:])
	case "account":
		err = accountCmd(ctx, c, os.Args[2:])
	case "transaction":
		err = transactionCmd(ctx, c, os.Args[2:])
	case "webhook":
		err = webhookCmd(ctx, c, os.Args[2:])
	case "key":
		err = keyCmd(ctx, c, os.Args[2:])
	case "rates":
		err = ratesCmd(ctx, c, os.Args[2:])
	case "convert":
		err = convertCmd(ctx, c, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func healthCmd(ctx context.Context, c *client.Client) error {
	h, err := c.Health(ctx)
	if err != nil {
		return err
	}
	return printJSON(h)
}

func bootstrapCmd(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("bootstrap", flag.ExitOnError)
	name := fs.String("name", "", "name for the first API key")
	fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("-name is required")
	}

	created, err := c.Bootstrap(ctx, *name)
	if err != nil {
		return err
	}
	return printJSON(created)
}

func accountCmd(ctx context.Context, c *client.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: payments account create|get|list")
	}

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("account create", flag.ExitOnError)
		name := fs.String("name", "", "account holder name")
		currency := fs.String("currency", "", "account currency (default USD)")
		fs.Parse(args[1:])

		if *name == "" {
			return fmt.Errorf("-name is required")
		}

		account, err := c.CreateAccount(ctx, *name, *currency)
		if err != nil {
			return err
		}
		return printJSON(account)

	case "get":
		fs := flag.NewFlagSet("account get", flag.ExitOnError)
		id := fs.String("id", "", "account ID")
		fs.Parse(args[1:])

		accountID, err := parseID(*id, "account ID")
		if err != nil {
			return err
		}

		account, err := c.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		return printJSON(account)

	case "list":
		accounts, err := c.ListAccounts(ctx)
		if err != nil {
			return err
		}
		return printJSON(accounts)

	default:
		return fmt.Errorf("unknown account command: %s", args[0])
	}
}

func transactionCmd(ctx context.Context, c *client.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: payments transaction deposit|withdraw|transfer|get|list")
	}

	switch args[0] {
	case "deposit", "withdraw":
		fs := flag.NewFlagSet("transaction "+args[0], flag.ExitOnError)
		account := fs.String("account", "", "account ID")
		amount := fs.Int64("amount", 0, "amount in minor units")
		currency := fs.String("currency", "USD", "transaction currency")
		idemKey := fs.String("idempotency-key", "", "idempotency key")
		reference := fs.String("reference", "", "free-form reference")
		fs.Parse(args[1:])

		accountID, err := parseID(*account, "account ID")
		if err != nil {
			return err
		}

		req := client.TransactionRequest{
			AccountID:      accountID,
			Amount:         *amount,
			Currency:       *currency,
			IdempotencyKey: optional(*idemKey),
			Reference:      optional(*reference),
		}

		var tx *client.Transaction
		if args[0] == "deposit" {
			tx, err = c.Deposit(ctx, req)
		} else {
			tx, err = c.Withdraw(ctx, req)
		}
		if err != nil {
			return err
		}
		return printJSON(tx)

	case "transfer":
		fs := flag.NewFlagSet("transaction transfer", flag.ExitOnError)
		from := fs.String("from", "", "source account ID")
		to := fs.String("to", "", "destination account ID")
		amount := fs.Int64("amount", 0, "amount in minor units")
		currency := fs.String("currency", "USD", "transaction currency")
		idemKey := fs.String("idempotency-key", "", "idempotency key")
		reference := fs.String("reference", "", "free-form reference")
		fs.Parse(args[1:])

		fromID, err := parseID(*from, "source account ID")
		if err != nil {
			return err
		}
		toID, err := parseID(*to, "destination account ID")
		if err != nil {
			return err
		}

		tx, err := c.Transfer(ctx, client.TransferRequest{
			FromAccountID:  fromID,
			ToAccountID:    toID,
			Amount:         *amount,
			Currency:       *currency,
			IdempotencyKey: optional(*idemKey),
			Reference:      optional(*reference),
		})
		if err != nil {
			return err
		}
		return printJSON(tx)

	case "get":
		fs := flag.NewFlagSet("transaction get", flag.ExitOnError)
		id := fs.String("id", "", "transaction ID")
		fs.Parse(args[1:])

		txID, err := parseID(*id, "transaction ID")
		if err != nil {
			return err
		}

		tx, err := c.GetTransaction(ctx, txID)
		if err != nil {
			return err
		}
		return printJSON(tx)

	case "list":
		fs := flag.NewFlagSet("transaction list", flag.ExitOnError)
		account := fs.String("account", "", "account ID")
		fs.Parse(args[1:])

		accountID, err := parseID(*account, "account ID")
		if err != nil {
			return err
		}

		txs, err := c.ListTransactions(ctx, accountID)
		if err != nil {
			return err
		}
		return printJSON(txs)

	default:
		return fmt.Errorf("unknown transaction command: %s", args[0])
	}
}

func webhookCmd(ctx context.Context, c *client.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: payments webhook register|list")
	}

	switch args[0] {
	case "register":
		fs := flag.NewFlagSet("webhook register", flag.ExitOnError)
		url := fs.String("url", "", "delivery URL")
		events := fs.String("events", "", "comma-separated event types, e.g. deposit.success,transfer.success")
		fs.Parse(args[1:])

		if *url == "" {
			return fmt.Errorf("-url is required")
		}

		webhook, err := c.RegisterWebhook(ctx, *url, splitEvents(*events))
		if err != nil {
			return err
		}
		return printJSON(webhook)

	case "list":
		webhooks, err := c.ListWebhooks(ctx)
		if err != nil {
			return err
		}
		return printJSON(webhooks)

	default:
		return fmt.Errorf("unknown webhook command: %s", args[0])
	}
}

func keyCmd(ctx context.Context, c *client.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: payments key create|list|delete")
	}

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("key create", flag.ExitOnError)
		name := fs.String("name", "", "key name")
		fs.Parse(args[1:])

		if *name == "" {
			return fmt.Errorf("-name is required")
		}

		created, err := c.CreateKey(ctx, *name)
		if err != nil {
			return err
		}
		return printJSON(created)

	case "list":
		keys, err := c.ListKeys(ctx)
		if err != nil {
			return err
		}
		return printJSON(keys)

	case "delete":
		fs := flag.NewFlagSet("key delete", flag.ExitOnError)
		id := fs.String("id", "", "API key ID")
		fs.Parse(args[1:])

		keyID, err := parseID(*id, "API key ID")
		if err != nil {
			return err
		}

		if err := c.DeleteKey(ctx, keyID); err != nil {
			return err
		}
		fmt.Println("deleted")
		return nil

	default:
		return fmt.Errorf("unknown key command: %s", args[0])
	}
}

func ratesCmd(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("rates", flag.ExitOnError)
	base := fs.String("base", "USD", "base currency")
	fs.Parse(args)

	rates, err := c.Rates(ctx, *base)
	if err != nil {
		return err
	}
	return printJSON(rates)
}

func convertCmd(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	from := fs.String("from", "", "source currency")
	to := fs.String("to", "", "target currency")
	amount := fs.Int64("amount", 0, "amount in minor units")
	fs.Parse(args)

	if *from == "" || *to == "" {
		return fmt.Errorf("-from and -to are required")
	}

	conversion, err := c.Convert(ctx, *from, *to, *amount)
	if err != nil {
		return err
	}
	return printJSON(conversion)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(raw, name string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func splitEvents(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	events := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			events = append(events, trimmed)
		}
	}
	return events
}
