package watch

import (
	"context"
	"fmt"

	"github.com/yato-cli/yato/aniskip"
	"github.com/yato-cli/yato/config"
	"github.com/yato-cli/yato/log"
	"github.com/yato-cli/yato/override"
)

type skipRule struct {
	name    string
	window  aniskip.Interval
	enabled bool
}

// skipRules lists the windows of an episode in the order they are checked.
func skipRules(skip config.Skip, setting override.Setting, windows aniskip.Windows) []skipRule {
	return []skipRule{
		{name: "opening", window: windows.Opening, enabled: override.Applies(skip.Opening, setting.Intro)},
		{name: "ending", window: windows.Ending, enabled: override.Applies(skip.Credits, setting.Outro)},
		{name: "recap", window: windows.Recap, enabled: override.Applies(skip.Recap, setting.Recap)},
	}
}

// matches reports whether the rule fires at position. A window ending at 0
// was not reported.
func (r skipRule) matches(position float64) bool {
	return r.enabled && r.window.End != 0 && r.window.Contains(position)
}

// applySkips seeks past every window position falls into, pausing for the
// cooldown after each seek so the same window cannot fire again right away.
func (o *Orchestrator) applySkips(ctx context.Context, p Controller, rules []skipRule, position float64) error {
	for _, rule := range rules {
		if !rule.matches(position) {
			continue
		}

		if err := p.SeekAbsolute(ctx, rule.window.End); err != nil {
			return fmt.Errorf("skip %s: %w", rule.name, err)
		}
		log.Infof("skipped %s %.2f-%.2f", rule.name, rule.window.Start, rule.window.End)
		o.printf("Skipped %s\n", rule.name)

		if err := o.sleep(ctx, o.cfg.Player.SkipCooldown); err != nil {
			return err
		}
	}
	return nil
}
