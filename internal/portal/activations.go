package portal

import (
	"strings"

	"github.com/Adolanium/SWLic/pkg/contracts/domain"
)

// firstActivationRow is the index of the first data row in the activation
// table; the two rows above it are headings.
const firstActivationRow = 2

// ParseActivationRows turns the cell text of the activation table into
// activations. Parsing stops at the first row without a flag cell.
func ParseActivationRows(rows [][]string) []domain.Activation {
	var out []domain.Activation
	for i := firstActivationRow; i < len(rows); i++ {
		cells := rows[i]
		if len(cells) < 3 {
			break
		}
		out = append(out, domain.Activation{
			Row:         i + 1,
			MachineName: strings.TrimSpace(cells[1]),
			Activated:   strings.TrimSpace(cells[2]) == "Y",
		})
	}
	return out
}
