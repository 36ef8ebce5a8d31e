package airdrop

import "sort"

// Bracket maps the first telegram id issued in a year, in millions, to the
// bonus points an account from that year receives.
type Bracket struct {
	Year          int
	MinIDMillions float64
	Points        int64
}

// DefaultBrackets is the account age table used when none is configured.
var DefaultBrackets = []Bracket{
	{Year: 2013, MinIDMillions: 0, Points: 50_000},
	{Year: 2014, MinIDMillions: 80, Points: 40_000},
	{Year: 2015, MinIDMillions: 130, Points: 30_000},
	{Year: 2016, MinIDMillions: 230, Points: 25_000},
	{Year: 2017, MinIDMillions: 360, Points: 20_000},
	{Year: 2018, MinIDMillions: 550, Points: 15_000},
	{Year: 2019, MinIDMillions: 800, Points: 10_000},
	{Year: 2020, MinIDMillions: 1_100, Points: 8_000},
	{Year: 2021, MinIDMillions: 1_600, Points: 6_000},
	{Year: 2022, MinIDMillions: 5_000, Points: 4_000},
	{Year: 2023, MinIDMillions: 6_000, Points: 2_000},
	{Year: 2024, MinIDMillions: 7_000, Points: 1_000},
}

// bracketFor returns the newest bracket whose first id is not above
// telegramID.
func bracketFor(brackets []Bracket, telegramID int64) (Bracket, bool) {
	sorted := make([]Bracket, len(brackets))
	copy(sorted, brackets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Year > sorted[j].Year })

	millions := float64(telegramID) / 1_000_000
	for _, b := range sorted {
		if millions >= b.MinIDMillions {
			return b, true
		}
	}
	return Bracket{}, false
}
