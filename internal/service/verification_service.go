package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"

	"github.com/slotwise/booking-engine/internal/models"
	"github.com/slotwise/booking-engine/internal/repository"
	"github.com/slotwise/booking-engine/pkg/backoff"
)

var ErrInvalidDomain = errors.New("a domain name is required")

// RoutingKeyVerification is the delayed-queue routing key for verification jobs.
const RoutingKeyVerification = "job.verification"

// VerificationPayload is the delayed-queue message body for verification jobs.
type VerificationPayload struct {
	HostID uint `json:"host_id"`
}

// DomainChecker probes the external condition a verification attempt polls.
type DomainChecker interface {
	Check(ctx context.Context, domain string) (bool, error)
}

// DNSChecker verifies ownership by looking for the expected TXT record.
type DNSChecker struct {
	RecordPrefix string
}

func (c DNSChecker) Check(ctx context.Context, domain string) (bool, error) {
	prefix := c.RecordPrefix
	if prefix == "" {
		prefix = "slotwise-verify="
	}
	records, err := net.DefaultResolver.LookupTXT(ctx, domain)
	if err != nil {
		return false, nil // not resolvable yet, retry later
	}
	for _, r := range records {
		if strings.HasPrefix(r, prefix) {
			return true, nil
		}
	}
	return false, nil
}

type VerificationService interface {
	StartVerification(ctx context.Context, hostID uint, domain string) (*models.Host, error)
	RunVerificationAttempt(ctx context.Context, hostID uint) error
}

type verificationService struct {
	hosts   repository.HostRepository
	checker DomainChecker
	queue   DelayedQueue
	policy  *backoff.Policy
}

func NewVerificationService(hosts repository.HostRepository, checker DomainChecker, queue DelayedQueue, policy *backoff.Policy) VerificationService {
	if policy == nil {
		policy = backoff.Default()
	}
	return &verificationService{hosts: hosts, checker: checker, queue: queue, policy: policy}
}

func (s *verificationService) StartVerification(ctx context.Context, hostID uint, domain string) (*models.Host, error) {
	if domain == "" {
		return nil, ErrInvalidDomain
	}

	host, err := s.hosts.FindByID(ctx, hostID)
	if err != nil {
		return nil, ErrHostNotFound
	}

	host.Domain = domain
	host.DomainStatus = models.DomainVerifying
	host.DomainAttempts = 0
	if err := s.hosts.Save(ctx, host); err != nil {
		return nil, fmt.Errorf("persist verification state: %w", err)
	}

	if err := s.queue.PublishDelayed(RoutingKeyVerification, VerificationPayload{HostID: host.ID}, 0); err != nil {
		return nil, fmt.Errorf("enqueue verification: %w", err)
	}
	return host, nil
}

// RunVerificationAttempt performs one poll. State is persisted after every
// attempt so a crash mid-sequence resumes from the stored attempt count.
func (s *verificationService) RunVerificationAttempt(ctx context.Context, hostID uint) error {
	host, err := s.hosts.FindByID(ctx, hostID)
	if err != nil {
		return ErrHostNotFound
	}

	// Redeliveries and attempts for an already-settled domain are skips.
	if host.DomainStatus != models.DomainVerifying {
		return nil
	}

	ok, err := s.checker.Check(ctx, host.Domain)
	if err != nil {
		return fmt.Errorf("domain probe: %w", err)
	}

	if ok {
		host.DomainStatus = models.DomainVerified
		return s.hosts.Save(ctx, host)
	}

	attempt := host.DomainAttempts
	host.DomainAttempts = attempt + 1

	delay, derr := s.policy.Delay(attempt)
	if errors.Is(derr, backoff.ErrMaxAttempts) {
		host.DomainStatus = models.DomainFailed
		log.Printf("[VerificationService] host %d domain %q failed after %d attempts", host.ID, host.Domain, host.DomainAttempts)
		return s.hosts.Save(ctx, host)
	}

	if err := s.hosts.Save(ctx, host); err != nil {
		return fmt.Errorf("persist attempt count: %w", err)
	}
	return s.queue.PublishDelayed(RoutingKeyVerification, VerificationPayload{HostID: host.ID}, delay)
}
