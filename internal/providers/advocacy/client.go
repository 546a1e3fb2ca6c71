// Package advocacy implements the advocacy-platform collaborator by driving
// the platform's event form in a headless browser, since the platform offers
// no API for event creation.
package advocacy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/example/event-publisher/internal/application"
	"github.com/example/event-publisher/internal/event"
)

const defaultTimeout = 90 * time.Second

// Config wires the target platform and the organizer account used to create
// events.
type Config struct {
	// BaseURL is the platform root, e.g. "https://actionnetwork.org".
	BaseURL  string
	Email    string
	Password string
	// Timeout bounds one whole create-event browser session.
	Timeout time.Duration
	// BrowserOptions are extra allocator options, mainly for tests.
	BrowserOptions []chromedp.ExecAllocatorOption
}

// Client creates events through the platform UI. Each call runs a fresh
// browser session: log in, fill the form, submit, scrape the links.
type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{cfg: cfg}
}

// formFields maps event data to the platform form's input names. Kept apart
// from the browser driving so the mapping stays testable.
type formFields struct {
	Title         string
	StartDate     string // 01/02/2006
	StartTime     string // 3:04 PM
	EndDate       string
	EndTime       string
	LocationName  string
	StreetAddress string
	City          string
	Region        string
	PostalCode    string
	Country       string
	Description   string
	Instructions  string
}

// newFormFields renders event instants in their own zone; the platform form
// has no timezone selector beyond what the account is configured for.
func newFormFields(info event.Info) formFields {
	country := info.Country
	if country == "" {
		country = event.DefaultCountry
	}
	return formFields{
		Title:         info.Title,
		StartDate:     info.Start.Format("01/02/2006"),
		StartTime:     info.Start.Format("3:04 PM"),
		EndDate:       info.End.Format("01/02/2006"),
		EndTime:       info.End.Format("3:04 PM"),
		LocationName:  info.LocationName,
		StreetAddress: info.StreetAddress,
		City:          info.City,
		Region:        info.Region,
		PostalCode:    info.PostalCode,
		Country:       country,
		Description:   info.Description,
		Instructions:  info.Instructions,
	}
}

// shareURLFromManageURL derives the public share link from the manage page
// URL. Manage pages live under /events/<slug>/manage; the public page is the
// same path without the trailing segment.
func shareURLFromManageURL(manageURL string) (string, error) {
	trimmed := strings.TrimSuffix(manageURL, "/")
	if !strings.HasSuffix(trimmed, "/manage") {
		return "", fmt.Errorf("advocacy: unexpected manage URL %q", manageURL)
	}
	return strings.TrimSuffix(trimmed, "/manage"), nil
}

// CreateEvent logs in, submits the event form and returns the manage and
// share links scraped from the resulting page.
func (c *Client) CreateEvent(ctx context.Context, info event.Info) (application.AdvocacyLinks, error) {
	var links application.AdvocacyLinks

	opts := append(chromedp.DefaultExecAllocatorOptions[:], c.cfg.BrowserOptions...)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, c.cfg.Timeout)
	defer cancelTimeout()

	if err := chromedp.Run(browserCtx, c.loginTasks()); err != nil {
		return links, fmt.Errorf("advocacy: log in: %w", err)
	}

	fields := newFormFields(info)
	var manageURL string
	if err := chromedp.Run(browserCtx, c.createEventTasks(fields, &manageURL)); err != nil {
		return links, fmt.Errorf("advocacy: submit event form: %w", err)
	}

	shareURL, err := shareURLFromManageURL(manageURL)
	if err != nil {
		return links, err
	}

	links.ManageURL = manageURL
	links.ShareURL = shareURL
	return links, nil
}

func (c *Client) loginTasks() chromedp.Tasks {
	return chromedp.Tasks{
		chromedp.Navigate(c.cfg.BaseURL + "/users/sign_in"),
		chromedp.WaitVisible(`input[name="user[email]"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="user[email]"]`, c.cfg.Email, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="user[password]"]`, c.cfg.Password, chromedp.ByQuery),
		chromedp.Click(`form input[type="submit"]`, chromedp.ByQuery),
		// The dashboard is the signed-in landing page.
		chromedp.WaitVisible(`a[href*="/new"]`, chromedp.ByQuery),
	}
}

func (c *Client) createEventTasks(fields formFields, manageURL *string) chromedp.Tasks {
	return chromedp.Tasks{
		chromedp.Navigate(c.cfg.BaseURL + "/events/new"),
		chromedp.WaitVisible(`input[name="event[title]"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="event[title]"]`, fields.Title, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="event[start_date]"]`, fields.StartDate, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="event[start_time]"]`, fields.StartTime, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="event[end_date]"]`, fields.EndDate, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="event[end_time]"]`, fields.EndTime, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="event[location_name]"]`, fields.LocationName, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="event[address]"]`, fields.StreetAddress, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="event[city]"]`, fields.City, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="event[state]"]`, fields.Region, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="event[zip]"]`, fields.PostalCode, chromedp.ByQuery),
		chromedp.SetValue(`select[name="event[country]"]`, fields.Country, chromedp.ByQuery),
		chromedp.SendKeys(`textarea[name="event[description]"]`, fields.Description, chromedp.ByQuery),
		chromedp.SendKeys(`textarea[name="event[instructions]"]`, fields.Instructions, chromedp.ByQuery),
		chromedp.Click(`form input[type="submit"]`, chromedp.ByQuery),
		// Submission lands on the event's manage page.
		chromedp.WaitVisible(`[data-event-manage]`, chromedp.ByQuery),
		chromedp.Location(manageURL),
	}
}
