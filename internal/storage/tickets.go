package storage

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrTicketClosed   = errors.New("ticket already closed")
)

type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

type Ticket struct {
	Number      int          `json:"number"`
	ChannelID   string       `json:"channel_id"`
	CreatorID   string       `json:"creator_id"`
	Category    string       `json:"category"`
	CreatedAt   time.Time    `json:"created_at"`
	Status      TicketStatus `json:"status"`
	ClosedBy    string       `json:"closed_by,omitempty"`
	CloseReason string       `json:"close_reason,omitempty"`
	ClosedAt    *time.Time   `json:"closed_at,omitempty"`
}

func (t Ticket) IsOpen() bool {
	return t.Status != TicketClosed
}

// ticketDoc mirrors tickets.json: guild -> category -> tickets.
type ticketDoc map[string]map[string][]Ticket

func (s *Store) loadTickets(path string) ticketDoc {
	doc := ticketDoc{}
	if s.readDoc(path, &doc) != nil {
		doc = ticketDoc{}
	}
	return doc
}

func (s *Store) viewTickets() ticketDoc {
	path := s.docPath(ticketsFile)
	var doc ticketDoc
	err := s.withLock(path, func() error {
		doc = s.loadTickets(path)
		return nil
	})
	if err != nil || doc == nil {
		return ticketDoc{}
	}
	return doc
}

func (s *Store) updateTickets(fn func(ticketDoc) (bool, error)) error {
	path := s.docPath(ticketsFile)
	return s.withLock(path, func() error {
		doc := ticketDoc{}
		ok, err := s.readForUpdate(path, &doc)
		if err != nil {
			return err
		}
		if !ok {
			doc = ticketDoc{}
		}
		changed, err := fn(doc)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return s.writeDoc(path, doc)
	})
}

func sortTickets(tickets []Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})
}

// GuildTickets returns every ticket of the guild, open and closed, oldest first.
func (s *Store) GuildTickets(guildID string) []Ticket {
	doc := s.viewTickets()
	tickets := make([]Ticket, 0)
	for _, list := range doc[guildID] {
		tickets = append(tickets, list...)
	}
	sortTickets(tickets)
	return tickets
}

func (s *Store) OpenTickets(guildID string) []Ticket {
	open := make([]Ticket, 0)
	for _, ticket := range s.GuildTickets(guildID) {
		if ticket.IsOpen() {
			open = append(open, ticket)
		}
	}
	return open
}

func (s *Store) OpenTicketsBy(guildID, creatorID string) []Ticket {
	mine := make([]Ticket, 0)
	for _, ticket := range s.OpenTickets(guildID) {
		if ticket.CreatorID == creatorID {
			mine = append(mine, ticket)
		}
	}
	return mine
}

// NextTicketNumber is one past the highest number ever used in the
// category, so numbers are never reused after a close.
func (s *Store) NextTicketNumber(guildID, category string) int {
	doc := s.viewTickets()
	highest := 0
	for _, ticket := range doc[guildID][category] {
		if ticket.Number > highest {
			highest = ticket.Number
		}
	}
	return highest + 1
}

func (s *Store) AddTicket(guildID string, ticket Ticket) error {
	if ticket.Status == "" {
		ticket.Status = TicketOpen
	}
	err := s.updateTickets(func(doc ticketDoc) (bool, error) {
		guild := doc[guildID]
		if guild == nil {
			guild = make(map[string][]Ticket)
			doc[guildID] = guild
		}
		guild[ticket.Category] = append(guild[ticket.Category], ticket)
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("add ticket: %w", err)
	}
	return nil
}

func (s *Store) TicketByChannel(guildID, channelID string) (Ticket, bool) {
	doc := s.viewTickets()
	for _, list := range doc[guildID] {
		for _, ticket := range list {
			if ticket.ChannelID == channelID {
				return ticket, true
			}
		}
	}
	return Ticket{}, false
}

// CloseTicket marks the ticket bound to channelID closed and returns it.
func (s *Store) CloseTicket(guildID, channelID, closedBy, reason string, at time.Time) (Ticket, error) {
	var closed Ticket
	err := s.updateTickets(func(doc ticketDoc) (bool, error) {
		for category, list := range doc[guildID] {
			for i := range list {
				if list[i].ChannelID != channelID {
					continue
				}
				if !list[i].IsOpen() {
					return false, ErrTicketClosed
				}
				closedAt := at
				list[i].Status = TicketClosed
				list[i].ClosedBy = closedBy
				list[i].CloseReason = reason
				list[i].ClosedAt = &closedAt
				doc[guildID][category] = list
				closed = list[i]
				return true, nil
			}
		}
		return false, ErrTicketNotFound
	})
	if err != nil {
		return Ticket{}, err
	}
	return closed, nil
}
