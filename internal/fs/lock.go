package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

var (
	// ErrWouldBlock is returned by [Locker.TryLock] when the lock is held by
	// another process, and by [Locker.LockWithTimeout] when the acquisition
	// timeout expires.
	ErrWouldBlock = errors.New("lock would block")

	// ErrInvalidTimeout is returned when a timeout is <= 0.
	ErrInvalidTimeout = errors.New("invalid lock timeout")

	// errInodeMismatch is an internal sentinel indicating the lock file was
	// replaced between open and flock. Callers should retry.
	errInodeMismatch = errors.New("inode mismatch")
)

// lockSuffix names the sidecar file Locker actually flocks. ringcachectl
// never locks the snapshot file itself: [Real.WriteFileAtomic] replaces it
// by rename, and an flock held on the old inode would stop guarding
// whatever file ends up at that path afterward.
const lockSuffix = ".lock"

// Locker serializes concurrent ringcachectl processes that would otherwise
// race writing the same stats snapshot, using flock(2) (via
// [syscall.Flock]) on a path+".lock" sidecar next to the snapshot.
//
// flock is advisory and applies to an inode (an open file), not a
// pathname: only callers that go through a Locker on the same underlying
// file are coordinated.
//
// Locker verifies that the file descriptor it locked still refers to the
// sidecar file currently at that path at the moment the lock is acquired
// (protecting the open→lock window). If the sidecar is replaced after
// acquisition, the lock no longer guards it - avoid deleting or
// overwriting a ".lock" file out from under a held lock.
//
// This implementation is Unix-only, exclusive-only (ringcachectl has no
// concurrent-reader use case to justify a shared-lock mode), and has no
// internal mutable state beyond its dependencies: it is safe for
// concurrent use as long as the underlying [FS] implementation is.
type Locker struct {
	fs    FS
	flock func(fd int, how int) error
}

// NewLocker returns a Locker that locks sidecar files through fs.
// ringcachectl constructs one over its [Real] filesystem to guard the
// "snapshot" command's atomic write.
func NewLocker(fs FS) *Locker {
	return &Locker{
		fs:    fs,
		flock: syscall.Flock,
	}
}

// Lock represents a held file lock. Call [Lock.Close] to release it.
type Lock struct {
	mu    sync.Mutex
	file  File
	flock func(fd int, how int) error
}

// Close releases the lock and closes the underlying file descriptor.
//
// Close is idempotent - calling it multiple times is safe and subsequent
// calls return nil.
//
// If both unlocking and closing fail, Close returns an error that wraps
// both underlying errors (see [errors.Join]).
func (lk *Lock) Close() error {
	lk.mu.Lock()
	defer lk.mu.Unlock()

	if lk.file == nil {
		return nil
	}

	fd := int(lk.file.Fd())

	unlockErr := flockRetryEINTR(lk.flock, fd, syscall.LOCK_UN)
	closeErr := lk.file.Close()
	lk.file = nil

	if unlockErr != nil {
		unlockErr = fmt.Errorf("unlocking lock: %w", unlockErr)
	}

	if closeErr != nil {
		closeErr = fmt.Errorf("closing lock fd: %w", closeErr)
	}

	return errors.Join(unlockErr, closeErr)
}

// Lock acquires an exclusive lock guarding path, blocking until the lock is
// available. The lock is actually taken on path+".lock", not path itself
// (see [Locker]).
//
// If the sidecar file or its parent directories do not exist, they are
// created lazily.
//
// This method blocks in the kernel with no timeout: it can block
// indefinitely if another ringcachectl instance holds the lock and never
// releases it (killed mid-snapshot, for instance). Use
// [Locker.LockWithTimeout] or [Locker.TryLock] to avoid unbounded
// blocking - the REPL's "snapshot" command does exactly that.
//
// Race conditions where the sidecar is replaced (renamed, deleted and
// recreated) during acquisition are handled automatically: the lock is
// always acquired on the inode currently at path+".lock". See
// [Locker.inodeMatchesPath] for details.
func (l *Locker) Lock(path string) (*Lock, error) {
	return l.lockBlocking(lockPathFor(path))
}

// LockWithTimeout attempts to acquire an exclusive lock guarding path,
// retrying with exponential backoff until the timeout expires.
//
// Unlike [Locker.Lock], this method uses non-blocking flock calls
// internally and polls with sleeps (1ms to 25ms backoff). This is slightly
// less efficient than true blocking but allows for timeouts. The timeout
// is best-effort: because this method polls and sleeps, it may overshoot
// slightly under scheduler delay.
//
// This method does not take a context; if you need cancellation, integrate
// it by choosing an appropriate timeout and retrying while your context is
// active.
//
// Returns an error satisfying [errors.Is] with [ErrWouldBlock] if the
// timeout expires before the lock is acquired. Returns [ErrInvalidTimeout]
// if timeout <= 0.
func (l *Locker) LockWithTimeout(path string, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be > 0", ErrInvalidTimeout)
	}

	return l.lockPolling(lockPathFor(path), timeout)
}

// TryLock attempts to acquire an exclusive lock guarding path without
// blocking.
//
// Returns immediately with [ErrWouldBlock] if the lock cannot be acquired
// immediately. cmdSnapshot doesn't use this directly, but tests do to
// probe contention without a sleep.
func (l *Locker) TryLock(path string) (*Lock, error) {
	return l.lockPolling(lockPathFor(path), 0)
}

func lockPathFor(path string) string {
	return path + lockSuffix
}

type lockMode int

const (
	lockModeBlocking lockMode = iota + 1
	lockModeNonBlocking
)

func (l *Locker) lockBlocking(lockPath string) (*Lock, error) {
	for {
		file, err := l.openLockFile(lockPath)
		if err != nil {
			return nil, fmt.Errorf("opening lockfile: %w", err)
		}

		err = l.acquire(file, lockPath, lockModeBlocking)
		if err == nil {
			return &Lock{file: file, flock: l.flock}, nil
		}

		_ = file.Close()

		if errors.Is(err, errInodeMismatch) {
			continue
		}

		return nil, err
	}
}

// lockPolling attempts to acquire a lock using non-blocking flock with
// retries.
//
//   - timeout == 0: try once (TryLock behavior)
//   - timeout > 0: retry with backoff until timeout (LockWithTimeout behavior)
func (l *Locker) lockPolling(lockPath string, timeout time.Duration) (*Lock, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	backoff := time.Millisecond

	for {
		file, err := l.openLockFile(lockPath)
		if err != nil {
			return nil, fmt.Errorf("opening lockfile: %w", err)
		}

		err = l.acquire(file, lockPath, lockModeNonBlocking)
		if err == nil {
			return &Lock{file: file, flock: l.flock}, nil
		}

		_ = file.Close()

		retryable := errors.Is(err, ErrWouldBlock) || errors.Is(err, errInodeMismatch)
		if !retryable {
			return nil, err
		}

		if timeout == 0 {
			if errors.Is(err, errInodeMismatch) {
				return nil, fmt.Errorf("%w: lock file was replaced while acquiring lock", ErrWouldBlock)
			}

			return nil, ErrWouldBlock
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			if errors.Is(err, errInodeMismatch) {
				return nil, fmt.Errorf("%w: timed out after %s (lock file was replaced while acquiring lock)", ErrWouldBlock, timeout)
			}

			return nil, fmt.Errorf("%w: timed out after %s", ErrWouldBlock, timeout)
		}

		sleep := min(backoff, remaining)

		time.Sleep(sleep)

		if backoff < 25*time.Millisecond {
			backoff *= 2
			if backoff > 25*time.Millisecond {
				backoff = 25 * time.Millisecond
			}
		}
	}
}

// acquire attempts to flock the given file and verify the inode still
// matches lockPath. On success, the file is locked and ready to use. On
// failure, the file is unlocked (if needed) but NOT closed - the caller
// must close it.
//
// Returns:
//   - nil: lock acquired successfully
//   - ErrWouldBlock: lock held by another process (only when mode==lockModeNonBlocking)
//   - errInodeMismatch: file at lockPath was replaced, caller should retry
//   - other error: something went wrong
func (l *Locker) acquire(file File, lockPath string, mode lockMode) error {
	fd := int(file.Fd())

	flags := syscall.LOCK_EX
	if mode == lockModeNonBlocking {
		flags |= syscall.LOCK_NB
	}

	if err := flockRetryEINTR(l.flock, fd, flags); err != nil {
		if isWouldBlock(err) {
			return ErrWouldBlock
		}
		return fmt.Errorf("flock: %w", err)
	}

	match, err := l.inodeMatchesPath(lockPath, file)
	if err != nil {
		_ = flockRetryEINTR(l.flock, fd, syscall.LOCK_UN)
		if errors.Is(err, os.ErrNotExist) {
			return errInodeMismatch
		}
		return fmt.Errorf("verifying inode match: %w", err)
	}

	if !match {
		_ = flockRetryEINTR(l.flock, fd, syscall.LOCK_UN)
		return errInodeMismatch
	}

	return nil
}

const (
	lockFilePerm = 0o600
	lockDirPerm  = 0o755
)

func (l *Locker) openLockFile(lockPath string) (File, error) {
	f, err := l.fs.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, lockFilePerm)
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		return f, err
	}

	if err := l.fs.MkdirAll(filepath.Dir(lockPath), lockDirPerm); err != nil {
		return nil, err
	}

	return l.fs.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, lockFilePerm)
}

// inodeMatchesPath verifies that f (the open file descriptor we're about to
// use as the lock) still refers to the sidecar file currently at lockPath.
//
// flock locks by inode, not pathname: a pathname can be replaced while
// acquiring the lock (or while blocked waiting on it), so without this
// check two callers could each believe they locked lockPath while actually
// holding flocks on two different inodes. This method compares (dev,inode)
// of the open fd (via File.Stat) to the current (dev,inode) at lockPath
// (via [FS.Stat]); callers use it immediately after flock and, on
// mismatch, unlock and retry.
//
// This only protects the open→lock window. If the sidecar is replaced
// after this check succeeds, the lock no longer guards it.
func (l *Locker) inodeMatchesPath(lockPath string, f File) (bool, error) {
	openInfo, err := f.Stat()
	if err != nil {
		return false, err
	}

	openSys, ok := openInfo.Sys().(*syscall.Stat_t)
	if !ok || openSys == nil {
		return false, fmt.Errorf("file.Stat Sys=%T, want *syscall.Stat_t", openInfo.Sys())
	}

	pathInfo, err := l.fs.Stat(lockPath)
	if err != nil {
		return false, err
	}

	pathSys, ok := pathInfo.Sys().(*syscall.Stat_t)
	if !ok || pathSys == nil {
		return false, fmt.Errorf("fs.Stat Sys=%T, want *syscall.Stat_t", pathInfo.Sys())
	}

	return openSys.Dev == pathSys.Dev && openSys.Ino == pathSys.Ino, nil
}

func isWouldBlock(err error) bool {
	return errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN)
}

// flockRetryEINTR wraps flock, retrying on EINTR.
//
// EINTR means the syscall was interrupted by a signal before it could
// complete - common on Unix (SIGWINCH, SIGCHLD, SIGALRM can all interrupt
// a blocking syscall). The syscall didn't fail, it just needs a retry.
//
// Retries are capped to avoid spinning forever under a pathological signal
// storm; Go's stdlib (ignoringEINTR in the os package) retries forever
// without a cap.
func flockRetryEINTR(flock func(fd int, how int) error, fd int, how int) error {
	const maxEINTRRetries = 10000

	var err error
	for range maxEINTRRetries {
		err = flock(fd, how)
		if err == nil || !errors.Is(err, syscall.EINTR) {
			return err
		}
	}

	return err
}
