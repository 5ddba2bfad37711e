package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

// internalIPs cover the private ranges and loopback a misconfigured proxy or
// an employee box would present.
var internalIPs = []string{
	"10.14.2.7",
	"192.168.1.50",
	"172.16.33.9",
	"127.0.0.1",
}

// InternalIPSpoofing clicks the business CTA while presenting private and
// loopback source addresses. Internal-traffic exclusion is the signal under
// test: every click must be filtered and non-billable.
type InternalIPSpoofing struct{}

func (InternalIPSpoofing) Name() string { return "InternalIPSpoofing" }

func (InternalIPSpoofing) Execute(ctx context.Context, sc *Context) error {
	bizURL := sc.resolveBusinessURL(ctx)

	for _, ip := range internalIPs {
		ip := ip

		profile := model.EnvironmentProfile{
			Name:    "internal-ip-" + ip,
			Headers: map[string]string{"X-Forwarded-For": ip},
		}

		err := sc.Env.Scoped(ctx, profile, func(ctx context.Context) error {
			if err := sc.Driver.Navigate(ctx, bizURL); err != nil {
				return err
			}

			if err := sc.dwell(ctx, sc.randBetween(500*time.Millisecond, 1500*time.Millisecond)); err != nil {
				return err
			}

			if err := sc.clickBusinessCTA(ctx); err != nil {
				return err
			}

			sc.logClick(ctx, model.ClickEvent{
				Screen:              ScreenBizDetails,
				URL:                 bizURL,
				IP:                  ip,
				FilterTriggered:     true,
				BillableClick:       false,
				BillableClickReason: "internal_ip",
			})

			sc.addResult(ctx, model.TestResult{
				Action:          "internal_ip_click",
				Success:         true,
				Details:         fmt.Sprintf("forwarded-for %s", ip),
				FilterTriggered: boolp(true),
				ClickRecorded:   boolp(false),
			})

			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
