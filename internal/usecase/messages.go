package usecase

import (
	"fmt"
	"strings"

	"dining-concierge/internal/domain"
)

const (
	msgGreeting        = "Hi there, how can I help?"
	msgThanks          = "You are welcome! Feel free to ask anything else."
	msgReuseConfirmed  = "Thank you! You will receive an email with your previous dining suggestions shortly."
	msgSearchConfirmed = "Thank you! You will receive an email with new dining suggestions shortly."
	msgApology         = "Oops! Something went wrong. Please try again."
	msgNotUnderstood   = "I'm sorry, I couldn't understand that."

	unknownValue = "Unknown"
)

func elicitMessage(slot string) string {
	return fmt.Sprintf("Please provide your %s.", slot)
}

func reuseQuestion(prev domain.PreferenceRecord) string {
	return fmt.Sprintf(
		"Your previous search was for %s %s cuisine. Would you like to use the same search again? (Yes/No)",
		prev.Location, prev.Cuisine,
	)
}

func recommendationSubject(cuisine string) string {
	return fmt.Sprintf("Your recommendations for %s cuisine are here", cuisine)
}

// recommendationBody lists restaurants in the order they were looked up.
func recommendationBody(cuisine string, restaurants []domain.Restaurant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello! Here are my %s restaurant suggestions:\n\n", cuisine)
	for i, r := range restaurants {
		fmt.Fprintf(&b, "%d. %s, located at %s\n", i+1, orUnknown(r.Name), orUnknown(r.Address))
	}
	b.WriteString("\nEnjoy your meal!")
	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknownValue
	}
	return s
}
