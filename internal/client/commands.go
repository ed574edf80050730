package client

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

const maxListURLWidth = 50

// Commands renders client results for the command line.
type Commands struct {
	client *Client
	out    io.Writer
}

// NewCommands returns Commands that print to out.
func NewCommands(client *Client, out io.Writer) *Commands {
	return &Commands{client: client, out: out}
}

// Create shortens target and prints the new link.
func (c *Commands) Create(ctx context.Context, target, code string) error {
	link, err := c.client.Create(ctx, target, code)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Short URL: %s\n", link.ShortURL)
	fmt.Fprintf(c.out, "Code:      %s\n", link.Code)
	fmt.Fprintf(c.out, "Target:    %s\n", link.URL)
	fmt.Fprintf(c.out, "Created:   %s\n", link.CreatedAt.Format(time.RFC3339))
	return nil
}

// Get prints a link with its click statistics.
func (c *Commands) Get(ctx context.Context, code string) error {
	link, err := c.client.Get(ctx, code)
	if err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("short code %q not found", code)
		}
		return err
	}

	fmt.Fprintf(c.out, "Code:         %s\n", link.Code)
	fmt.Fprintf(c.out, "Target:       %s\n", link.URL)
	fmt.Fprintf(c.out, "Clicks:       %d\n", link.ClickCount)
	fmt.Fprintf(c.out, "Last clicked: %s\n", lastClicked(link.LastClickedAt))
	fmt.Fprintf(c.out, "Created:      %s\n", link.CreatedAt.Format(time.RFC3339))
	return nil
}

// Delete removes a link.
func (c *Commands) Delete(ctx context.Context, code string) error {
	if err := c.client.Delete(ctx, code); err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("short code %q not found", code)
		}
		return err
	}

	fmt.Fprintf(c.out, "Deleted %s\n", code)
	return nil
}

// List prints every link as a table.
func (c *Commands) List(ctx context.Context) error {
	links, err := c.client.List(ctx)
	if err != nil {
		return err
	}

	if len(links) == 0 {
		fmt.Fprintln(c.out, "No links found")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tURL\tCLICKS\tLAST CLICKED\tCREATED")
	for _, link := range links {
		target := link.URL
		if len(target) > maxListURLWidth {
			target = target[:maxListURLWidth-3] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			link.Code,
			target,
			link.ClickCount,
			lastClicked(link.LastClickedAt),
			link.CreatedAt.Format(time.DateTime),
		)
	}
	return tw.Flush()
}

func lastClicked(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format(time.DateTime)
}
