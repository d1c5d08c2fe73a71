package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/multicloud/internal/apierr"
)

func TestCPF(t *testing.T) {
	tests := []struct {
		name string
		cpf  string
		want []string
	}{
		{name: "valid", cpf: "11144477735"},
		{name: "another valid", cpf: "52998224725"},
		{name: "wrong first check digit", cpf: "11144477745", want: []string{"Invalid CPF provided"}},
		{name: "wrong second check digit", cpf: "11144477736", want: []string{"Invalid CPF provided"}},
		{name: "all digits equal", cpf: "11111111111", want: []string{"Invalid CPF provided"}},
		{name: "too short", cpf: "1114447773", want: []string{"CPF must contain exactly 11 digits"}},
		{name: "letters", cpf: "1114447773a", want: []string{"CPF must contain only numbers"}},
		{name: "formatted", cpf: "111.444.777-35", want: []string{"CPF must contain exactly 11 digits", "CPF must contain only numbers"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CPF(tt.cpf))
		})
	}
}

func TestIsEmail(t *testing.T) {
	require.True(t, IsEmail("alice@example.com"))
	require.True(t, IsEmail("a.b+tag@sub.example.com.br"))
	require.False(t, IsEmail("alice"))
	require.False(t, IsEmail("alice@localhost"))
	require.False(t, IsEmail("Alice <alice@example.com>"))
	require.False(t, IsEmail(""))
}

func TestMessages(t *testing.T) {
	t.Run("nothing failed", func(t *testing.T) {
		var m Messages
		m.Length("name", "Alice", 2, 255)
		m.Email("alice@example.com")
		m.CPF("11144477735")
		m.UUID("id", "0190b7c4-1f3e-7c2a-9a4b-2f6d8e9a1b3c")
		m.Required("password", "x")
		require.NoError(t, m.Err())
	})

	t.Run("failures are collected in order", func(t *testing.T) {
		var m Messages
		m.Length("name", "A", 2, 255)
		m.Email("nope")
		m.Length("alias", "", 1, 100)
		m.UUID("id", "123")
		m.Required("password", "  ")

		var apiErr *apierr.Error
		require.ErrorAs(t, m.Err(), &apiErr)
		require.Equal(t, apierr.KindValidation, apiErr.Kind)
		require.Equal(t, []string{
			"name must be at least 2 characters",
			"Invalid email format",
			"alias must be at least 1 characters",
			"id must be a valid UUID",
			"password is required",
		}, apiErr.Messages)
	})

	t.Run("max length counts characters", func(t *testing.T) {
		var m Messages
		m.Length("name", "ção", 2, 3)
		require.NoError(t, m.Err())
		m.Length("name", "ççççç", 2, 3)
		require.Error(t, m.Err())
	})
}
