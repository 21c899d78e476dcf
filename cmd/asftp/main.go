// Command asftp transfers files over SFTP through a spawned ssh
// subprocess. It can push local files to a remote directory, pull
// remote files, and migrate host status files between layout versions.
package main

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
	"golang.org/x/crypto/ssh"

	sftpc "github.com/fdist/sftpc"
	"github.com/fdist/sftpc/fsa"
)

// Exit codes, kept stable for existing callers.
const (
	exitSuccess = iota
	exitConnectError
	exitAuthError
	exitChdirError
	exitOpenRemoteError
	exitReadRemoteError
	exitWriteRemoteError
	exitCloseRemoteError
	exitMoveRemoteError
	exitOpenLocalError
	exitReadLocalError
	exitWriteLocalError
	exitStatError
	exitTimeoutError
	exitAllocError
	exitSyntaxError
	exitSetBlocksizeError
	exitNoopError
	exitFileNameFileError
)

var (
	host        = flag.String("host", "", "remote host")
	port        = flag.Int("port", 22, "ssh port")
	user        = flag.String("user", "", "remote user")
	password    = flag.String("password", "", "password (or ASFTP_PASSWORD)")
	hostKeyFile = flag.String("hostkey", "", "server public key file, pinned by fingerprint")

	configFile = flag.String("config", "", "YAML host file")
	profile    = flag.String("profile", "", "profile name in the host file")

	remoteDir  = flag.String("dir", "", "remote target directory")
	createDirs = flag.Bool("create-dirs", false, "create missing remote directories")
	dirMode    = flag.Uint32("dir-mode", 0o755, "mode for created directories")
	fileMode   = flag.Uint32("mode", 0, "chmod uploaded files to this mode (0 keeps default)")
	lock       = flag.Bool("lock", true, "upload under a dot name, rename when complete")

	retrieve  = flag.Bool("retrieve", false, "pull the named files instead of pushing")
	localDir  = flag.String("local-dir", ".", "local directory for retrieved files")
	filesFrom = flag.String("files-from", "", "read the file list from this file")

	blocksize = flag.Uint32("blocksize", sftpc.DefaultBlocksize, "transfer block size")
	timeout   = flag.Duration("timeout", 2*time.Minute, "transfer timeout")
	keepAlive = flag.Bool("keepalive", false, "enable ssh server-alive probes")
	logLevel  = flag.String("loglevel", "info", "trace, debug, info, warn or error")
	debug     = flag.Int("debug", 0, "protocol debug level 0-3")

	migrateStatus = flag.String("migrate-status", "", "migrate this status file and exit")
	statusVersion = flag.Uint8("status-version", fsa.CurrentVersion, "target status layout version")
)

func main() {
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad -loglevel:", err)
		os.Exit(exitSyntaxError)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	os.Exit(run(log))
}

func run(log zerolog.Logger) int {
	if *migrateStatus != "" {
		if err := fsa.Migrate(*migrateStatus, *statusVersion, log); err != nil {
			log.Error().Err(err).Str("path", *migrateStatus).Msg("status migration failed")
			return exitAllocError
		}
		return exitSuccess
	}

	cfg := sftpc.Config{
		Host:      *host,
		Port:      *port,
		User:      *user,
		Password:  *password,
		KeepAlive: *keepAlive,
		Timeout:   *timeout,
		Debug:     sftpc.DebugLevel(*debug),
		Logger:    log,
	}

	if cfg.Password == "" {
		cfg.Password = os.Getenv("ASFTP_PASSWORD")
	}

	dir := *remoteDir
	hostKey := *hostKeyFile
	bs := *blocksize

	if *configFile != "" {
		p, err := loadProfile(*configFile, *profile)
		if err != nil {
			log.Error().Err(err).Msg("host file")
			return exitSyntaxError
		}

		if cfg.Host == "" {
			cfg.Host = p.Host
		}
		if p.Port != 0 && *port == 22 {
			cfg.Port = p.Port
		}
		if cfg.User == "" {
			cfg.User = p.User
		}
		if cfg.Password == "" {
			cfg.Password = p.Password
		}
		if hostKey == "" {
			hostKey = p.HostKey
		}
		if dir == "" {
			dir = p.Dir
		}
		if p.Blocksize != 0 && bs == sftpc.DefaultBlocksize {
			bs = p.Blocksize
		}
		cfg.KeepAlive = cfg.KeepAlive || p.KeepAlive
		cfg.SSHOptions = append(cfg.SSHOptions, p.SSHOptions...)
	}

	if cfg.Host == "" {
		log.Error().Msg("no host given")
		return exitSyntaxError
	}

	if hostKey != "" {
		fp, err := fingerprintFromFile(hostKey)
		if err != nil {
			log.Error().Err(err).Msg("host key")
			return exitSyntaxError
		}
		cfg.Fingerprint = fp
	}

	files := flag.Args()

	if *filesFrom != "" {
		listed, err := readFileList(*filesFrom)
		if err != nil {
			log.Error().Err(err).Str("path", *filesFrom).Msg("file name file")
			return exitFileNameFileError
		}
		files = append(files, listed...)
	}

	if len(files) == 0 {
		log.Error().Msg("no files to transfer")
		return exitSyntaxError
	}

	s, err := sftpc.Connect(cfg)
	if err != nil {
		log.Error().Err(err).Str("host", cfg.Host).Msg("connect failed")
		return exitFor(err, exitConnectError)
	}
	defer s.Quit()

	log.Info().
		Str("host", cfg.Host).
		Uint32("version", s.Version()).
		Msg("connected")

	if bs, err = s.SetBlocksize(bs); err != nil {
		log.Error().Err(err).Msg("blocksize rejected")
		return exitSetBlocksizeError
	}

	if dir != "" {
		if err := s.Cd(dir, *createDirs, *dirMode, nil); err != nil {
			log.Error().Err(err).Str("dir", dir).Msg("chdir failed")
			return exitFor(err, exitChdirError)
		}
	}

	var total uint64
	start := time.Now()

	for _, name := range files {
		var (
			n    uint64
			code int
		)

		if *retrieve {
			n, code = retrieveFile(s, log, name, *localDir)
		} else {
			n, code = sendFile(s, log, name)
		}

		if code != exitSuccess {
			return code
		}

		total += n
	}

	elapsed := time.Since(start)

	rate := float64(total)
	if secs := elapsed.Seconds(); secs > 0 {
		rate /= secs
	}

	log.Info().
		Int("files", len(files)).
		Str("transferred", humanize.IBytes(total)).
		Str("rate", humanize.IBytes(uint64(rate))+"/s").
		Stringer("elapsed", elapsed.Round(time.Millisecond)).
		Msg("done")

	return exitSuccess
}

// sendFile uploads one local file into the current remote directory.
// With -lock the data lands under a dot name first and is renamed into
// place once the handle is closed, so pickup jobs never see partials.
func sendFile(s *sftpc.Session, log zerolog.Logger, local string) (uint64, int) {
	in, err := os.Open(local)
	if err != nil {
		log.Error().Err(err).Str("file", local).Msg("open local")
		return 0, exitOpenLocalError
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		log.Error().Err(err).Str("file", local).Msg("stat local")
		return 0, exitStatError
	}

	final := path.Base(local)
	target := final
	if *lock {
		target = "." + final
	}

	f, err := s.OpenFile(target, sftpc.OpenOptions{
		Write:         true,
		Perm:          *fileMode,
		CreateParents: *createDirs,
		DirMode:       *dirMode,
	})
	if err != nil {
		log.Error().Err(err).Str("file", target).Msg("open remote")
		return 0, exitFor(err, exitOpenRemoteError)
	}

	buf := make([]byte, f.Blocksize())

	var sent uint64
	for {
		n, rerr := in.Read(buf)

		if n > 0 {
			if werr := f.Write(buf[:n]); werr != nil {
				log.Error().Err(werr).Str("file", target).Msg("write remote")
				f.Close()
				return sent, exitFor(werr, exitWriteRemoteError)
			}
			sent += uint64(n)
		}

		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			log.Error().Err(rerr).Str("file", local).Msg("read local")
			f.Close()
			return sent, exitReadLocalError
		}
	}

	if err := f.Close(); err != nil {
		log.Error().Err(err).Str("file", target).Msg("close remote")
		return sent, exitFor(err, exitCloseRemoteError)
	}

	if *lock {
		if err := s.Rename(target, final, false, 0); err != nil {
			log.Error().Err(err).Str("from", target).Str("to", final).Msg("rename remote")
			return sent, exitFor(err, exitMoveRemoteError)
		}
	}

	log.Info().
		Str("file", final).
		Str("size", humanize.IBytes(uint64(fi.Size()))).
		Msg("sent")

	return sent, exitSuccess
}

// retrieveFile pulls one remote file into localDir, reading through the
// pipelined path and falling back to single reads on a short block.
func retrieveFile(s *sftpc.Session, log zerolog.Logger, remote, localDir string) (uint64, int) {
	attrs, err := s.Stat(remote)
	if err != nil {
		log.Error().Err(err).Str("file", remote).Msg("stat remote")
		return 0, exitFor(err, exitStatError)
	}

	f, err := s.OpenFile(remote, sftpc.OpenOptions{Read: true})
	if err != nil {
		log.Error().Err(err).Str("file", remote).Msg("open remote")
		return 0, exitFor(err, exitOpenRemoteError)
	}
	defer f.Close()

	local := filepath.Join(localDir, path.Base(remote))

	out, err := os.Create(local)
	if err != nil {
		log.Error().Err(err).Str("file", local).Msg("open local")
		return 0, exitOpenLocalError
	}
	defer out.Close()

	buf := make([]byte, f.Blocksize())

	var got uint64
	singleReads := false

	f.MultiReadInit(attrs.Size)

	for !f.MultiReadEOF() {
		var (
			n    int
			rerr error
		)

		if singleReads {
			n, rerr = f.Read(buf)
			if rerr == io.EOF {
				break
			}
		} else {
			if rerr = f.MultiReadDispatch(); rerr == nil {
				n, rerr = f.MultiReadCatch(buf)
			}

			if rerr == io.EOF {
				continue
			}

			if errors.Is(rerr, sftpc.ErrDoSingleReads) {
				// Remote file is shorter than its stat said; drain the
				// window and finish block by block.
				f.MultiReadDiscard(true)
				singleReads = true
				rerr = nil
			}
		}

		if rerr != nil {
			log.Error().Err(rerr).Str("file", remote).Msg("read remote")
			return got, exitFor(rerr, exitReadRemoteError)
		}

		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				log.Error().Err(werr).Str("file", local).Msg("write local")
				return got, exitWriteLocalError
			}
			got += uint64(n)
		}
	}

	if err := out.Close(); err != nil {
		log.Error().Err(err).Str("file", local).Msg("close local")
		return got, exitWriteLocalError
	}

	log.Info().
		Str("file", remote).
		Str("size", humanize.IBytes(got)).
		Msg("retrieved")

	return got, exitSuccess
}

// exitFor maps transport-level failures onto their dedicated exit code.
func exitFor(err error, fallback int) int {
	switch {
	case errors.Is(err, sftpc.ErrTimeout):
		return exitTimeoutError
	case errors.Is(err, sftpc.ErrTooManyOutstanding):
		return exitAllocError
	default:
		return fallback
	}
}

// fingerprintFromFile reads an authorized_keys style public key and
// returns its SHA256 fingerprint for pinning.
func fingerprintFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "reading public key")
	}

	key, _, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return "", errors.Wrap(err, "parsing public key")
	}

	return ssh.FingerprintSHA256(key), nil
}

// readFileList returns the non-empty, non-comment lines of path.
func readFileList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		files = append(files, line)
	}

	return files, nil
}
