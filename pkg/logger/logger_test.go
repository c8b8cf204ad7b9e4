package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONEnProduccion(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "info", Output: &buf})

	l.Component("transfers").Info().Str("number", "T1").Msg("traslado creado")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "transfers", line["component"])
	assert.Equal(t, "T1", line["number"])
	assert.Equal(t, "traslado creado", line["message"])
}

func TestNew_RespetaNivel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "warn", Output: &buf})

	l.Info().Msg("no debe salir")
	assert.Empty(t, buf.String())

	l.Warn().Msg("sí debe salir")
	assert.Contains(t, buf.String(), "sí debe salir")
}

func TestNop_NoEscribe(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error().Msg("descartado")
	})
}

func TestCtx_AgregaCamposDelContexto(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "info", Service: "stock-transfer-api", Output: &buf}).Component("http")

	ctx := WithFields(context.Background(), "user_id", "u-1")
	ctx = WithFields(ctx, "role", "operator")
	l.Ctx(ctx).Info().Msg("con actor")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "stock-transfer-api", line["service"])
	assert.Equal(t, "http", line["component"])
	assert.Equal(t, "u-1", line["user_id"])
	assert.Equal(t, "operator", line["role"])
}

func TestCtx_SinCamposDevuelveElMismoLogger(t *testing.T) {
	l := Nop()
	assert.Same(t, l, l.Ctx(context.Background()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}
