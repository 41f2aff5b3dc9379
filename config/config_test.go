package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewConfig()
	assert.NoError(t, cfg.Validate())
}

func TestFromJSONPartialOverride(t *testing.T) {
	data := []byte(`{
		"server": {"listen": "127.0.0.1:9000"},
		"rendezvous": {"default_ttl": "30m", "sweep_interval": "1s"}
	}`)

	cfg, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)
	assert.Equal(t, 30*time.Minute, cfg.Rendezvous.DefaultTTL.Duration())
	assert.Equal(t, time.Second, cfg.Rendezvous.SweepInterval.Duration())

	// 未出现的字段保留默认值
	assert.Equal(t, 72*time.Hour, cfg.Rendezvous.MaxTTL.Duration())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestFromJSONInvalid(t *testing.T) {
	_, err := FromJSON([]byte(`{"log": {"level": "verbose"}}`))
	assert.Error(t, err)

	_, err = FromJSON([]byte(`{"rendezvous": {"default_ttl": "100h"}}`))
	assert.Error(t, err)

	_, err = FromJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestDurationFormats(t *testing.T) {
	var d Duration

	require.NoError(t, json.Unmarshal([]byte(`"1h30m"`), &d))
	assert.Equal(t, 90*time.Minute, d.Duration())

	// 数字按纳秒解析
	require.NoError(t, json.Unmarshal([]byte(`1000000000`), &d))
	assert.Equal(t, time.Second, d.Duration())

	assert.Error(t, json.Unmarshal([]byte(`"forever"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))
}

func TestDurationMarshal(t *testing.T) {
	out, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(out))
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.Server.Listen = "0.0.0.0:5000"

	data, err := cfg.ToJSON()
	require.NoError(t, err)

	loaded, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
