package domain

// PreferenceRecord is the last search a user ran, keyed by email.
// RestaurantNames is only populated once a recommendation has been sent.
type PreferenceRecord struct {
	Email           string
	Location        string
	Cuisine         string
	DiningTime      string
	PartySize       string
	RestaurantNames []string
}

// FulfillmentJob is the queue message handed from the dialogue to the worker.
type FulfillmentJob struct {
	Location   string `json:"location"`
	Cuisine    string `json:"cuisine"`
	DiningTime string `json:"dining_time"`
	PartySize  string `json:"number_of_people"`
	Email      string `json:"email"`
}

// Preference returns the record the dialogue persists for this job.
func (j FulfillmentJob) Preference() PreferenceRecord {
	return PreferenceRecord{
		Email:      j.Email,
		Location:   j.Location,
		Cuisine:    j.Cuisine,
		DiningTime: j.DiningTime,
		PartySize:  j.PartySize,
	}
}

// Candidate is a search hit pointing at a restaurant record.
type Candidate struct {
	RestaurantID string
}

// Restaurant is the enriched record for a candidate.
type Restaurant struct {
	BusinessID string
	Name       string
	Address    string
}

// ReceivedJob pairs a raw queue message with its acknowledgement handle.
type ReceivedJob struct {
	MessageID     string
	Body          string
	ReceiptHandle string
}

// Recognition is the intent classifier's reply to one utterance.
type Recognition struct {
	SessionID string
	Messages  []string
	Intent    string
}
