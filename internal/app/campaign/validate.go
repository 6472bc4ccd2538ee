package campaign

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrCharacterNotFound = errors.New("character not found")
	ErrInventoryNotFound = errors.New("inventory not found")
	ErrInviteNotFound    = errors.New("invite code not found")
	ErrMissingField      = errors.New("missing required field")
	ErrForbidden         = errors.New("forbidden")
	ErrAlreadyMember     = errors.New("already a member")
	ErrNotMember         = errors.New("not a member")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrItemNotFound      = errors.New("item not in inventory")
	ErrBadQuantity       = errors.New("quantity must be positive")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

func ValidateCampaign(c *Campaign) error {
	if c == nil || strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	return nil
}

func ValidateCharacter(c *Character) error {
	if c == nil || strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	if c.Level <= 0 {
		c.Level = 1
	}
	return nil
}

func ValidateMonster(m *Monster) error {
	if m == nil || strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	return nil
}

func ValidateSpell(s *Spell) error {
	if s == nil || strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	return nil
}

func ValidateNote(n *Note) error {
	if n == nil || strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title", ErrMissingField)
	}
	if strings.TrimSpace(n.CampaignID) == "" {
		return fmt.Errorf("%w: campaign_id", ErrMissingField)
	}
	return nil
}

func ValidateSession(s *Session) error {
	if s == nil || strings.TrimSpace(s.CampaignID) == "" {
		return fmt.Errorf("%w: campaign_id", ErrMissingField)
	}
	return nil
}
