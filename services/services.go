// Package services holds the business operations behind the HTTP handlers.
// Every tenant-bound operation takes the caller's tenancy.Scope explicitly.
package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"food-delivery-platform/apperr"
	"food-delivery-platform/auth"
	"food-delivery-platform/tenancy"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// wrap keeps typed errors as they are and turns anything else into an
// opaque internal error carrying op for the logs.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(fmt.Errorf("%s: %w", op, err))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFound maps gorm's missing-row error to a NotFound with msg.
func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}

func authorize(s tenancy.Scope, c auth.Capability) error {
	if !auth.Can(s.Role, c) {
		return apperr.Forbidden("you do not have permission to perform this action")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
