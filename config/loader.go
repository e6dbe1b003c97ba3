package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem is the part of the OS the resolver touches.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem reads the local disk and loads .env files with godotenv.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// ResolvedFiles is the outcome of a lookup. Empty fields mean nothing was found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// Resolver picks the config.yml and .env files for a service.
type Resolver struct {
	FileSystem FileSystem
}

// ResolveFiles applies the lookup order: explicit option, then the
// <SERVICE>_CONFIG variable, then the first existing candidate path.
func (r *Resolver) ResolveFiles(serviceName string, lc LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = os.Getenv(ConfigEnvVar(serviceName))
	}
	if files.ConfigFile == "" {
		files.ConfigFile = r.first(candidates(serviceName, "config.yml"))
	}
	if files.EnvFile == "" {
		files.EnvFile = r.first(append(candidates(serviceName, ".env."+serviceName), candidates(serviceName, ".env")...))
	}
	return files
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

// candidates lists where a file may live relative to the working directory.
// The binary is run from the repo root, from cmd/<service> and from package
// directories during tests, so the parents are searched as well.
func candidates(serviceName, file string) []string {
	out := []string{"./cmd/" + serviceName + "/" + file}
	for _, up := range []string{"..", "../.."} {
		out = append(out, up+"/cmd/"+serviceName+"/"+file)
	}
	out = append(out, "./config/"+file, "./"+file)
	if file != "config.yml" {
		out = append(out, file)
	}
	return out
}

// ConfigEnvVar names the variable that may point at the config file,
// WHISPER_SRT_CONFIG for "whisper-srt".
func ConfigEnvVar(serviceName string) string {
	return envPrefix(serviceName) + "CONFIG"
}

func envPrefix(serviceName string) string {
	return strings.ToUpper(strings.ReplaceAll(serviceName, "-", "_")) + "_"
}

// LoaderConfig holds the loader's collaborators and file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption configures Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem replaces the disk used for lookups.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile skips the search and reads path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile skips the search and loads path as a .env file.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Loader is the viper instance behind a loaded config. It stays alive so the
// file can be watched for changes.
type Loader struct {
	v     *viper.Viper
	files ResolvedFiles
}

// ConfigFile returns the file that was read, or "" when none was.
func (l *Loader) ConfigFile() string { return l.files.ConfigFile }

// GetString reads a dotted key such as "logging.level".
func (l *Loader) GetString(key string) string { return l.v.GetString(key) }

// Watch calls fn after each change to the config file. Without a file it
// does nothing.
func (l *Loader) Watch(fn func(ev fsnotify.Event, l *Loader)) {
	if l.files.ConfigFile == "" {
		return
	}
	l.v.OnConfigChange(func(ev fsnotify.Event) { fn(ev, l) })
	l.v.WatchConfig()
}

// LoadConfig is Load for callers that do not watch the file.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) error {
	_, err := Load(serviceName, cfg, opts...)
	return err
}

// Load fills cfg from the service's config file, then its .env file, then
// the environment. A missing config file is not an error; an unreadable one is.
func Load(serviceName string, cfg any, opts ...LoaderOption) (*Loader, error) {
	lc := LoaderConfig{FileSystem: RealFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}

	files := (&Resolver{FileSystem: lc.FileSystem}).ResolveFiles(serviceName, lc)
	v := viper.New()

	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(filepath.Clean(files.ConfigFile))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", files.ConfigFile, err)
		}
	} else {
		files.ConfigFile = ""
	}

	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", files.EnvFile, err)
		}
	} else {
		files.EnvFile = ""
	}

	applyEnv(v, envKeys(v, cfg), envPrefix(serviceName), os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode %s config: %w", serviceName, err)
	}
	return &Loader{v: v, files: files}, nil
}

// envKeys indexes every known config key by its environment name, so
// "worker.queue_size" is reachable as WORKER_QUEUE_SIZE. Keys come from the
// file and from the mapstructure tags of cfg, which covers sections the
// file leaves out.
func envKeys(v *viper.Viper, cfg any) map[string]string {
	keys := make(map[string]string)
	add := func(key string) {
		keys[strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = key
	}
	for _, key := range v.AllKeys() {
		add(key)
	}
	if cfg != nil {
		walkKeys(reflect.TypeOf(cfg), "", add)
	}
	return keys
}

func walkKeys(t reflect.Type, prefix string, add func(string)) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		if prefix != "" {
			add(prefix)
		}
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		if opts == "squash" {
			walkKeys(f.Type, prefix, add)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		if isLeaf(f.Type) {
			add(name)
			continue
		}
		walkKeys(f.Type, name, add)
	}
}

// isLeaf reports whether a field decodes from a single value rather than a
// nested section.
func isLeaf(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() != reflect.Struct
}

// applyEnv overrides known keys from environ. Both SERVER_PORT and the
// prefixed WHISPER_SRT_SERVER_PORT are accepted; the prefixed form wins.
func applyEnv(v *viper.Viper, keys map[string]string, prefix string, environ []string) {
	var prefixed [][2]string
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if rest, found := strings.CutPrefix(name, prefix); found {
			prefixed = append(prefixed, [2]string{rest, value})
			continue
		}
		if key, ok := keys[name]; ok {
			v.Set(key, value)
		}
	}
	for _, p := range prefixed {
		if key, ok := keys[p[0]]; ok {
			v.Set(key, p[1])
		}
	}
}
