package statement

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

const dateLayout = "2006-01-02"

// Data is the pre-formatted content of one commission statement.
type Data struct {
	AgentID     string
	PackName    string
	PackCode    string
	PeriodStart time.Time
	PeriodEnd   time.Time
	GeneratedAt time.Time

	Percentage      string
	Progress        string
	NextPercentage  string
	NextThreshold   string
	RemainingInTier string

	Sales              string
	Rental             string
	PropertyManagement string
	Total              string
	Commission         string

	Lines []Line
}

type Line struct {
	Date        string
	Source      string
	Description string
	Amount      string
}

// Render lays out a statement as a PDF document.
func Render(data Data) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(15,
		text.NewCol(12, "Commission statement", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New("Agent: "+data.AgentID, props.Text{Top: 0}),
			text.New("Pack: "+data.PackName+" ("+data.PackCode+")", props.Text{Top: 5}),
			text.New("Period: "+data.PeriodStart.Format(dateLayout)+" to "+data.PeriodEnd.Format(dateLayout), props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Generated: "+data.GeneratedAt.Format(time.RFC3339), props.Text{Align: align.Right}),
		),
	)

	// Tier
	m.AddRow(10,
		text.NewCol(12, "Commission tier", props.Text{Size: 12, Style: fontstyle.Bold, Top: 2}),
	)
	m.AddRow(20,
		col.New(6).Add(
			text.New("Current rate: "+data.Percentage+"%", props.Text{Size: 9}),
			text.New("Progress in tier: "+data.Progress+"%", props.Text{Size: 9, Top: 5}),
			text.New("Remaining in tier: "+data.RemainingInTier, props.Text{Size: 9, Top: 10}),
		),
		col.New(6).Add(nextTier(data)...),
	)

	// Buckets
	m.AddRow(10,
		text.NewCol(12, "Revenue", props.Text{Size: 12, Style: fontstyle.Bold, Top: 2}),
	)
	for _, row := range [][2]string{
		{"Sales", data.Sales},
		{"Rental", data.Rental},
		{"Property management", data.PropertyManagement},
	} {
		m.AddRow(6,
			text.NewCol(8, row[0], props.Text{Size: 9}),
			text.NewCol(4, row[1], props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(8,
		text.NewCol(8, "Total", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(4, data.Total, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(8,
		text.NewCol(8, "Commission", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(4, data.Commission, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)

	// Records
	m.AddRow(10,
		text.NewCol(2, "Date", props.Text{Style: fontstyle.Bold, Size: 9, Top: 3}),
		text.NewCol(3, "Source", props.Text{Style: fontstyle.Bold, Size: 9, Top: 3}),
		text.NewCol(5, "Description", props.Text{Style: fontstyle.Bold, Size: 9, Top: 3}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Top: 3, Align: align.Right}),
	)
	m.AddRow(1, line.NewCol(12))

	if len(data.Lines) == 0 {
		m.AddRow(8, text.NewCol(12, "No revenue recorded in this period.", props.Text{Size: 9, Top: 2}))
	}
	for _, l := range data.Lines {
		m.AddRow(7,
			text.NewCol(2, l.Date, props.Text{Size: 8}),
			text.NewCol(3, l.Source, props.Text{Size: 8}),
			text.NewCol(5, l.Description, props.Text{Size: 8}),
			text.NewCol(2, l.Amount, props.Text{Size: 8, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate statement: %w", err)
	}
	return doc.GetBytes(), nil
}

func nextTier(data Data) []core.Component {
	if data.NextPercentage == "" {
		return []core.Component{text.New("Top tier reached", props.Text{Size: 9})}
	}
	return []core.Component{
		text.New("Next rate: "+data.NextPercentage+"%", props.Text{Size: 9}),
		text.New("Next tier from: "+data.NextThreshold, props.Text{Size: 9, Top: 5}),
	}
}
