package cli

import (
	"context"
	"fmt"
	"strings"
)

// Stats prints the process counters kept since start-up.
func (a *App) Stats(_ context.Context) error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}

			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			fmt.Fprintf(a.out, "%s %g\n", name, m.GetCounter().GetValue())
		}
	}
	return nil
}
