package withdraw

import "strconv"

const nanoPerTON = 1_000_000_000

func minimumMessage(minNano int64) string {
	ton := float64(minNano) / nanoPerTON
	return "Minimum withdraw amount is " + strconv.FormatFloat(ton, 'f', 1, 64) + " TON"
}
