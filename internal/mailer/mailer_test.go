package mailer

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/myfan-dev/myfan/console/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func queued(t *testing.T, kind domain.MailType, to string) []byte {
	t.Helper()
	body, err := json.Marshal(domain.MailMessage{
		Type: kind,
		To:   to,
		Data: domain.BookingMailData{
			CustomerName: "山田 花子",
			StoreName:    "渋谷院",
			StorePhone:   "03-0000-0000",
			Title:        "初診",
			Date:         "2024年5月2日（木）",
			Time:         "10:00〜10:30",
		},
	})
	require.NoError(t, err)
	return body
}

func TestRender(t *testing.T) {
	env, err := Decode(queued(t, domain.MailBookingCanceled, "hanako@example.com"))
	require.NoError(t, err)

	subject, body, err := Render(env)
	require.NoError(t, err)
	assert.Equal(t, "【渋谷院】ご予約のキャンセルについて", subject)
	assert.Contains(t, body, "山田 花子 さま")
	assert.Contains(t, body, "2024年5月2日（木）")
	assert.Contains(t, body, "10:00〜10:30")
	assert.Contains(t, body, "03-0000-0000")
}

func TestRender_Created(t *testing.T) {
	env, err := Decode(queued(t, domain.MailBookingCreated, "hanako@example.com"))
	require.NoError(t, err)

	subject, body, err := Render(env)
	require.NoError(t, err)
	assert.Equal(t, "【渋谷院】ご予約を承りました", subject)
	assert.Contains(t, body, "初診")
}

func TestRender_UnsupportedType(t *testing.T) {
	env, err := Decode(queued(t, domain.MailType("reset_password"), "hanako@example.com"))
	require.NoError(t, err)

	_, _, err = Render(env)
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"type":"booking_created","data":{}}`))
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	env, err := Decode(queued(t, domain.MailBookingCreated, "hanako@example.com"))
	require.NoError(t, err)

	msg, err := Build("clinic@example.com", env)
	require.NoError(t, err)
	assert.Equal(t, []string{"【渋谷院】ご予約を承りました"}, msg.GetGenHeader(mail.HeaderSubject))

	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"hanako@example.com"}, rcpts)

	_, err = Build("not an address", env)
	assert.Error(t, err)
}
