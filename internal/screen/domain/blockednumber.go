package domain

// BlockedNumber is one entry of the user's block list. Number is stored raw
// (no normalization) and is unique within the list. AddedTimestamp is a
// monotonically increasing sequence value, not wall-clock time.
type BlockedNumber struct {
	ID             string `json:"id"`
	Number         string `json:"number"`
	AddedTimestamp int64  `json:"addedTimestamp"`
}
