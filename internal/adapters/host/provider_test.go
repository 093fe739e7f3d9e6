package host_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/xbuild/internal/adapters/host"
	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestParseOSRelease(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "quoted",
			input: "PRETTY_NAME=\"Ubuntu 24.04 LTS\"\nNAME=\"Ubuntu\"\nVERSION_ID=\"24.04\"\n",
			want:  "Ubuntu",
		},
		{
			name:  "unquoted",
			input: "ID=arch\nNAME=Arch Linux\n",
			want:  "Arch Linux",
		},
		{
			name:  "missing",
			input: "ID=unknown\n",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, host.ParseOSRelease(strings.NewReader(tt.input)))
		})
	}
}

func TestProvider_PlatformMatchesDomain(t *testing.T) {
	ctrl := gomock.NewController(t)
	p, err := host.NewProvider(mocks.NewMockExecutor(ctrl))
	require.NoError(t, err)

	platform, err := domain.HostPlatform()
	require.NoError(t, err)
	arch, err := domain.HostArch()
	require.NoError(t, err)

	assert.Equal(t, platform, p.Platform())
	assert.Equal(t, arch, p.Arch())
}

func TestProvider_Details_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("os-release is linux only")
	}

	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	executor.EXPECT().
		Output(gomock.Any(), domain.NewCommand("uname", "-r")).
		Return("6.8.0-45-generic", nil)

	release := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(release, []byte("NAME=\"Fedora Linux\"\n"), 0o600))

	p, err := host.NewProvider(executor)
	require.NoError(t, err)
	p.SetOSReleasePath(release)

	details, err := p.Details(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Fedora Linux 6.8.0-45-generic", details)
}
