package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/ykvlv/checkin-bot/internal/domain"
)

const (
	userPrefix      = "user:"
	defaultPageSize = 100
)

// UserKey is the KV key of a chat's record.
func UserKey(chatID int64) string {
	return userPrefix + strconv.FormatInt(chatID, 10)
}

// Users stores UserRecords as JSON documents in a KV.
type Users struct {
	kv       KV
	pageSize int
}

func NewUsers(kv KV, pageSize int) *Users {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Users{kv: kv, pageSize: pageSize}
}

// Get returns the record for chatID, UserNotFound if there is none, or
// InvalidRecord if the stored document does not match the schema.
func (u *Users) Get(ctx context.Context, chatID int64) (domain.UserRecord, error) {
	raw, err := u.kv.Get(ctx, UserKey(chatID))
	if errors.Is(err, ErrNotFound) {
		return domain.UserRecord{}, domain.UserNotFound(chatID)
	}
	if err != nil {
		return domain.UserRecord{}, fmt.Errorf("get user %d: %w", chatID, err)
	}
	return decodeRecord(chatID, raw)
}

// Put validates r and overwrites the stored record.
func (u *Users) Put(ctx context.Context, r domain.UserRecord) error {
	if err := domain.ValidateRecord(r); err != nil {
		return err
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode user %d: %w", r.ChatID, err)
	}
	if err := u.kv.Put(ctx, UserKey(r.ChatID), string(raw)); err != nil {
		return fmt.Errorf("put user %d: %w", r.ChatID, err)
	}
	return nil
}

// Delete removes the record; a missing record is not an error.
func (u *Users) Delete(ctx context.Context, chatID int64) error {
	if err := u.kv.Delete(ctx, UserKey(chatID)); err != nil {
		return fmt.Errorf("delete user %d: %w", chatID, err)
	}
	return nil
}

// All lazily enumerates every record, following page cursors. The first
// error (backend or invalid record) is yielded once and ends the sequence.
func (u *Users) All(ctx context.Context) iter.Seq2[domain.UserRecord, error] {
	return func(yield func(domain.UserRecord, error) bool) {
		cursor := ""
		for {
			page, err := u.kv.List(ctx, userPrefix, cursor, u.pageSize)
			if err != nil {
				yield(domain.UserRecord{}, fmt.Errorf("list users: %w", err))
				return
			}
			for _, it := range page.Items {
				r, err := decodeItem(it)
				if err != nil {
					yield(domain.UserRecord{}, err)
					return
				}
				if !yield(r, nil) {
					return
				}
			}
			if page.Next == "" {
				return
			}
			cursor = page.Next
		}
	}
}

func decodeItem(it Item) (domain.UserRecord, error) {
	chatID, err := strconv.ParseInt(strings.TrimPrefix(it.Key, userPrefix), 10, 64)
	if err != nil {
		return domain.UserRecord{}, domain.InvalidRecord(0, []domain.FieldViolation{
			{Path: "$key", Reason: fmt.Sprintf("%q is not a chat id", it.Key)},
		}, err)
	}
	return decodeRecord(chatID, it.Value)
}

// decodeRecord is strict: unknown fields, wrong types and out-of-domain values
// are all InvalidRecord.
func decodeRecord(chatID int64, raw string) (domain.UserRecord, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var r domain.UserRecord
	if err := dec.Decode(&r); err != nil {
		return domain.UserRecord{}, domain.InvalidRecord(chatID, []domain.FieldViolation{
			{Path: "$", Reason: err.Error()},
		}, err)
	}
	if vs := domain.Validate(r); len(vs) > 0 {
		return domain.UserRecord{}, domain.InvalidRecord(chatID, vs, nil)
	}
	if r.ChatID != chatID {
		return domain.UserRecord{}, domain.InvalidRecord(chatID, []domain.FieldViolation{
			{Path: "chat_id", Reason: "does not match storage key"},
		}, nil)
	}
	return r, nil
}
