package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func syncEnv(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DISCORD_GENERAL_CHANNEL_ID", "100")
	t.Setenv("MINECRAFT_SERVER_PORT", "25580")
}

func TestLoadSync_Defaults(t *testing.T) {
	req := require.New(t)
	syncEnv(t)

	cfg, err := LoadSync([]string{"./run.sh", "nogui"})
	req.NoError(err)

	req.Equal([]string{"./run.sh", "nogui"}, cfg.Command)
	req.Equal("minecraft", cfg.Game)
	req.Equal(60*time.Second, cfg.StopTimeout)
	req.Equal(10, cfg.QueueDepth)
	req.True(cfg.Console)
	req.Equal("info", cfg.LogLevel)
	req.Equal(DefaultIgnoredAuthors, cfg.Ignored())
	req.Equal(":25580", cfg.ShutdownAddr())
}

func TestLoadSync_FlagsWin(t *testing.T) {
	req := require.New(t)
	syncEnv(t)
	t.Setenv("GAME", "minecraft")
	t.Setenv("IGNORED_AUTHORS", " mc-sync, ,relay ")

	cfg, err := LoadSync([]string{"--game", "vintagestory", "--console=false", "--container", "mc"})
	req.NoError(err)

	req.Equal("vintagestory", cfg.Game)
	req.False(cfg.Console)
	req.Equal("mc", cfg.Container)
	req.Empty(cfg.Command)
	req.Equal([]string{"mc-sync", "relay"}, cfg.Ignored())
}

func TestLoadSync_Invalid(t *testing.T) {
	req := require.New(t)
	syncEnv(t)

	_, err := LoadSync(nil)
	req.ErrorIs(err, ErrNoCommand)

	_, err = LoadSync([]string{"--log-level", "loud", "./run.sh"})
	req.Error(err)

	// An API needs a token hash.
	_, err = LoadSync([]string{"--api", "127.0.0.1:8080", "./run.sh"})
	req.Error(err)

	t.Setenv("DISCORD_TOKEN", "")
	_, err = LoadSync([]string{"./run.sh"})
	req.Error(err)
}

func bootEnv(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DISCORD_GENERAL_CHANNEL_ID", "100")
	t.Setenv("AWS_INSTANCE_ID", "i-0123")
}

func TestLoadBoot(t *testing.T) {
	req := require.New(t)
	bootEnv(t)
	t.Setenv("MINECRAFT_SERVER_URL", "mc.example.com")
	t.Setenv("MINECRAFT_SERVER_PORT", "25580")

	cfg, err := LoadBoot([]string{"--hibernate"})
	req.NoError(err)

	req.Equal("us-east-2", cfg.Region)
	req.Equal(5*time.Second, cfg.PollInterval)
	req.True(cfg.Hibernate)
	req.True(cfg.StopInstance)
	req.Equal("mc.example.com:25580", cfg.ShutdownAddr())
	req.Empty(cfg.GameAddr())
}

func TestLoadBoot_Invalid(t *testing.T) {
	req := require.New(t)
	bootEnv(t)

	// A port without a host
	_, err := LoadBoot([]string{"--game-port", "25565"})
	req.Error(err)

	// Half a static credential
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	_, err = LoadBoot(nil)
	req.Error(err)
}
