package views

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/a-h/templ"
)

// StandingsTable renders standings as an HTML fragment. Group tournaments get
// a group column.
func StandingsTable(standings []bracket.Standing) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		grouped := len(standings) > 0 && standings[0].Group != nil

		if _, err := io.WriteString(w, `<table class="standings"><thead><tr>`); err != nil {
			return err
		}
		if grouped {
			if _, err := io.WriteString(w, `<th>Group</th>`); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `<th>#</th><th>Participant</th><th>Pts</th><th>P</th><th>W</th><th>L</th><th>Sets</th><th>Points</th></tr></thead><tbody>`); err != nil {
			return err
		}

		for _, s := range standings {
			row := "<tr>"
			if grouped {
				row += "<td>" + strconv.Itoa(*s.Group) + "</td>"
			}
			row += fmt.Sprintf("<td>%d</td><td>%s</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>%d-%d</td><td>%d-%d</td></tr>",
				s.Rank, templ.EscapeString(s.ParticipantID.String()), s.MatchPoints, s.Played, s.Wins, s.Losses,
				s.SetsWon, s.SetsLost, s.PointsWon, s.PointsLost)
			if _, err := io.WriteString(w, row); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
}
