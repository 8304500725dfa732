package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/EugenePawit/expiration-tracker/config"
	"github.com/EugenePawit/expiration-tracker/models"
	"github.com/EugenePawit/expiration-tracker/utils"
)

// Message is one composed notification, ready for any transport. Tag lets
// collapsing delivery layers (Web Push) replace an earlier send instead of
// stacking duplicates.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// Composer turns one endpoint's item list into zero or more messages. Pure:
// no I/O, deterministic for a given item list and reference time.
type Composer struct {
	WindowDays int
	TopK       int
	Policy     string
	Location   *time.Location
}

func NewComposer(cfg *config.Config) *Composer {
	return &Composer{
		WindowDays: cfg.ExpiryWindowDays,
		TopK:       cfg.NotifyTopK,
		Policy:     cfg.NotifyPolicy,
		Location:   cfg.Timezone,
	}
}

type dueItem struct {
	item models.FoodItem
	days int
}

// Compose returns nil when nothing in the list is due; the caller reads
// that as "skip this endpoint".
func (c *Composer) Compose(items []models.FoodItem, now time.Time) []Message {
	due := c.dueItems(items, now)
	if len(due) == 0 {
		return nil
	}
	if c.Policy == config.PolicyPerItem {
		return c.perItem(due)
	}
	return []Message{c.batch(due)}
}

// dueItems filters to the lookahead window and sorts most-urgent first.
// Malformed items (blank name, unparsable date) are dropped here rather than
// failing the whole batch; the client owns its own data quality.
func (c *Composer) dueItems(items []models.FoodItem, now time.Time) []dueItem {
	var due []dueItem
	for _, it := range items {
		if it.Name == "" {
			continue
		}
		exp, err := utils.ParseExpiryDate(it.ExpiryDate, c.Location)
		if err != nil {
			continue
		}
		d := utils.DaysRemaining(exp, now)
		if d < 0 || d > c.WindowDays {
			continue
		}
		due = append(due, dueItem{item: it, days: d})
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].days != due[j].days {
			return due[i].days < due[j].days
		}
		return due[i].item.ID < due[j].item.ID
	})
	return due
}

func (c *Composer) batch(due []dueItem) Message {
	title := fmt.Sprintf("🚨 %d items expiring soon!", len(due))
	if len(due) == 1 {
		title = fmt.Sprintf("🚨 %s expires soon!", due[0].item.Name)
	}

	top := due
	if c.TopK > 0 && len(top) > c.TopK {
		top = top[:c.TopK]
	}
	lines := make([]string, 0, len(top))
	for _, d := range top {
		lines = append(lines, fmt.Sprintf("• %s - %s", d.item.Name, utils.DaysText(d.days)))
	}

	body := strings.Join(lines, "\n")
	if more := len(due) - len(top); more > 0 {
		body += fmt.Sprintf("\n...and %d more", more)
	}
	body += "\n\nOpen the app to check your items!"

	return Message{Title: title, Body: body, URL: "/", Tag: "expiry-reminder"}
}

func (c *Composer) perItem(due []dueItem) []Message {
	msgs := make([]Message, 0, len(due))
	for _, d := range due {
		msgs = append(msgs, Message{
			Title: d.item.Name,
			Body:  utils.DaysText(d.days),
			URL:   "/",
			Tag:   "expiry-" + d.item.ID,
		})
	}
	return msgs
}
