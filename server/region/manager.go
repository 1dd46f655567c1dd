package region

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/blockforge/core/server/chunk"
)

// checksumSize is the width of the xxhash checksum prefixed to every
// on-disk chunk payload, covering the compressed bytes so a torn or
// corrupted write is caught on the next LoadChunk rather than handed to
// the zstd decoder as silently garbled data.
const checksumSize = 8

// flushConcurrency bounds how many region headers FlushAll writes out at
// once: each is an independent file, so the writes fan out across regions
// while the manager's lock is held.
const flushConcurrency = 8

// Config configures a Manager.
type Config struct {
	// BaseDir is the directory region files (*.srg) live in.
	BaseDir string
	// Logger receives I/O and corruption diagnostics. A nil Logger disables
	// logging.
	Logger *slog.Logger
}

// Manager owns every open region file for one world dimension. It keeps
// only location-table headers (8 KiB each) resident; chunk payloads are
// read on demand and never cached here. A single mutex serializes all
// region bookkeeping, matching the "one lock over the open-region map, all
// I/O serial per region" concurrency model this store was designed around.
type Manager struct {
	baseDir string
	log     *slog.Logger

	mu      sync.Mutex
	regions map[Pos]*regionHandle

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

type regionHandle struct {
	file        *os.File
	header      *Header
	loadedCount int
	headerDirty bool
	fileSectors uint32
}

// NewManager creates a Manager rooted at cfg.BaseDir. The directory is not
// created until the first region is opened or acquired.
func NewManager(cfg Config) (*Manager, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("region: create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("region: create zstd decoder: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		baseDir: cfg.BaseDir,
		log:     log,
		regions: make(map[Pos]*regionHandle),
		encoder: enc,
		decoder: dec,
	}, nil
}

func (m *Manager) regionPath(pos Pos) string {
	return filepath.Join(m.baseDir, pos.Filename())
}

// openRegion opens an existing region file or creates a new empty one.
// Callers must hold m.mu.
func (m *Manager) openRegion(pos Pos) (*regionHandle, error) {
	path := m.regionPath(pos)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return m.createRegion(pos)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	var fileHeader [FileHeaderSize]byte
	if _, err := io.ReadFull(f, fileHeader[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("region: read file header: %w", err)
	}
	if fileHeader[0] != RegionMagic[0] || fileHeader[1] != RegionMagic[1] ||
		fileHeader[2] != RegionMagic[2] || fileHeader[3] != RegionMagic[3] {
		f.Close()
		return nil, fmt.Errorf("region: %s: invalid magic", path)
	}
	version := uint16(fileHeader[4]) | uint16(fileHeader[5])<<8
	if version > FormatVersion {
		f.Close()
		return nil, fmt.Errorf("region: %s: version %d is newer than supported version %d", path, version, FormatVersion)
	}

	tableBytes := make([]byte, ChunkTableSize)
	if _, err := io.ReadFull(f, tableBytes); err != nil {
		f.Close()
		return nil, fmt.Errorf("region: read chunk table: %w", err)
	}
	header := HeaderFromBytes(tableBytes)

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, err
	}
	fileSectors := uint32((size + SectorSize - 1) / SectorSize)

	return &regionHandle{file: f, header: header, fileSectors: fileSectors}, nil
}

func (m *Manager) createRegion(pos Pos) (*regionHandle, error) {
	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("region: create base dir: %w", err)
	}

	f, err := os.OpenFile(m.regionPath(pos), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	var fileHeader [FileHeaderSize]byte
	copy(fileHeader[0:4], RegionMagic[:])
	fileHeader[4] = byte(FormatVersion)
	fileHeader[5] = byte(FormatVersion >> 8)
	if _, err := f.Write(fileHeader[:]); err != nil {
		f.Close()
		return nil, err
	}

	header := NewHeader()
	if _, err := f.Write(header.ToBytes()); err != nil {
		f.Close()
		return nil, err
	}

	return &regionHandle{file: f, header: header, fileSectors: FirstDataSector}, nil
}

func writeHeader(h *regionHandle) error {
	if _, err := h.file.Seek(FileHeaderSize, io.SeekStart); err != nil {
		return err
	}
	if _, err := h.file.Write(h.header.ToBytes()); err != nil {
		return err
	}
	return h.file.Sync()
}

func readChunkData(h *regionHandle, sectorOffset, size uint32) ([]byte, error) {
	out := make([]byte, size)
	if _, err := h.file.ReadAt(out, int64(sectorOffset)*SectorSize); err != nil {
		return nil, err
	}
	return out, nil
}

func writeChunkData(h *regionHandle, sectorOffset uint32, data []byte) error {
	if _, err := h.file.WriteAt(data, int64(sectorOffset)*SectorSize); err != nil {
		return err
	}
	padding := (SectorSize - len(data)%SectorSize) % SectorSize
	if padding > 0 {
		if _, err := h.file.WriteAt(make([]byte, padding), int64(sectorOffset)*SectorSize+int64(len(data))); err != nil {
			return err
		}
	}
	sectorsUsed := uint32((len(data) + SectorSize - 1) / SectorSize)
	if end := sectorOffset + sectorsUsed; end > h.fileSectors {
		h.fileSectors = end
	}
	return h.file.Sync()
}

// AcquireChunk opens or creates the region containing pos and increments
// its reference count. Must be paired with ReleaseChunk. Returns whether
// the chunk already exists on disk.
func (m *Manager) AcquireChunk(pos chunk.ChunkPos) (bool, error) {
	regionPos := PosFromChunk(pos.X, pos.Z)
	localX, localZ := LocalChunkPos(pos.X, pos.Z)
	index := ChunkIndex(localX, localZ)

	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.regions[regionPos]
	if !ok {
		var err error
		h, err = m.openRegion(regionPos)
		if err != nil {
			return false, err
		}
		m.regions[regionPos] = h
	}

	exists := h.header.Entries[index].Exists()
	h.loadedCount++
	return exists, nil
}

// ReleaseChunk decrements the region's reference count; at zero, the
// header is flushed (if dirty) and the file handle closed.
func (m *Manager) ReleaseChunk(pos chunk.ChunkPos) error {
	regionPos := PosFromChunk(pos.X, pos.Z)

	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.regions[regionPos]
	if !ok {
		return nil
	}
	if h.loadedCount > 0 {
		h.loadedCount--
	}
	if h.loadedCount > 0 {
		return nil
	}

	delete(m.regions, regionPos)
	if h.headerDirty {
		if err := writeHeader(h); err != nil {
			h.file.Close()
			return err
		}
	}
	return h.file.Close()
}

// LoadChunk reads and decompresses a chunk's persisted record. The region
// must already be acquired via AcquireChunk. Returns ok=false if the chunk
// does not exist on disk.
func (m *Manager) LoadChunk(pos chunk.ChunkPos) (persistent *PersistentChunk, status chunk.Status, ok bool, err error) {
	regionPos := PosFromChunk(pos.X, pos.Z)
	localX, localZ := LocalChunkPos(pos.X, pos.Z)
	index := ChunkIndex(localX, localZ)

	m.mu.Lock()
	h, found := m.regions[regionPos]
	m.mu.Unlock()
	if !found {
		m.log.Warn("region: LoadChunk called without a prior AcquireChunk", "region", regionPos)
		return nil, 0, false, nil
	}

	entry := h.header.Entries[index]
	if !entry.Exists() {
		return nil, 0, false, nil
	}

	envelope, err := readChunkData(h, entry.SectorOffset, entry.SizeBytes)
	if err != nil {
		return nil, 0, false, err
	}
	if len(envelope) < checksumSize {
		return nil, 0, false, fmt.Errorf("region: chunk %v payload too short for checksum (%d bytes)", pos, len(envelope))
	}
	wantSum := binary.LittleEndian.Uint64(envelope[:checksumSize])
	compressed := envelope[checksumSize:]
	if gotSum := xxhash.Sum64(compressed); gotSum != wantSum {
		m.log.Error("region: chunk checksum mismatch, payload likely corrupted", "chunk", pos, "region", regionPos)
		return nil, 0, false, fmt.Errorf("region: chunk %v failed checksum verification", pos)
	}
	raw, err := m.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, 0, false, fmt.Errorf("region: decompress chunk %v: %w", pos, err)
	}
	persistent, err = Deserialize(raw)
	if err != nil {
		return nil, 0, false, fmt.Errorf("region: deserialize chunk %v: %w", pos, err)
	}
	return persistent, entry.Status, true, nil
}

// SaveChunk serializes, compresses, and writes a chunk's persisted record,
// allocating sectors as needed. Returns an error if the compressed payload
// exceeds MaxChunkSize.
func (m *Manager) SaveChunk(pos chunk.ChunkPos, persistent *PersistentChunk, status chunk.Status) error {
	regionPos := PosFromChunk(pos.X, pos.Z)
	localX, localZ := LocalChunkPos(pos.X, pos.Z)
	index := ChunkIndex(localX, localZ)

	m.mu.Lock()
	defer m.mu.Unlock()

	weOpenedRegion := false
	h, ok := m.regions[regionPos]
	if !ok {
		weOpenedRegion = true
		var err error
		h, err = m.openRegion(regionPos)
		if err != nil {
			return err
		}
		m.regions[regionPos] = h
	}

	data := Serialize(persistent)
	compressed := m.encoder.EncodeAll(data, make([]byte, 0, len(data)))

	if len(compressed) > MaxChunkSize {
		if weOpenedRegion {
			delete(m.regions, regionPos)
			h.file.Close()
		}
		return fmt.Errorf("region: chunk %v too large: %d bytes (max %d)", pos, len(compressed), MaxChunkSize)
	}

	envelope := make([]byte, checksumSize+len(compressed))
	binary.LittleEndian.PutUint64(envelope[:checksumSize], xxhash.Sum64(compressed))
	copy(envelope[checksumSize:], compressed)

	sectorsNeeded := uint32((len(envelope) + SectorSize - 1) / SectorSize)
	oldEntry := h.header.Entries[index]

	var sectorOffset uint32
	if oldEntry.Exists() && oldEntry.SectorCount() >= sectorsNeeded {
		sectorOffset = oldEntry.SectorOffset
	} else {
		sectorOffset = h.header.FindFreeSectors(sectorsNeeded, h.fileSectors)
	}

	if err := writeChunkData(h, sectorOffset, envelope); err != nil {
		return err
	}

	h.header.Entries[index] = ChunkEntry{SectorOffset: sectorOffset, SizeBytes: uint32(len(envelope)), Status: status}

	if weOpenedRegion && h.loadedCount == 0 {
		if err := writeHeader(h); err != nil {
			return err
		}
		delete(m.regions, regionPos)
		return h.file.Close()
	}
	h.headerDirty = true
	return nil
}

// ChunkExists reports whether a chunk has a location-table entry, without
// loading or decompressing its payload.
func (m *Manager) ChunkExists(pos chunk.ChunkPos) (bool, error) {
	regionPos := PosFromChunk(pos.X, pos.Z)
	localX, localZ := LocalChunkPos(pos.X, pos.Z)
	index := ChunkIndex(localX, localZ)

	m.mu.Lock()
	if h, ok := m.regions[regionPos]; ok {
		exists := h.header.Entries[index].Exists()
		m.mu.Unlock()
		return exists, nil
	}
	m.mu.Unlock()

	path := m.regionPath(regionPos)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	var entryBytes [8]byte
	if _, err := f.ReadAt(entryBytes[:], FileHeaderSize+int64(index*8)); err != nil {
		return false, err
	}
	return EntryFromBytes(entryBytes).Exists(), nil
}

// FlushAll writes every dirty header to disk without closing file handles.
// Each region's header lives in its own file, so dirty regions are flushed
// concurrently (bounded by flushConcurrency). The manager's lock is held
// until every write has finished, so no chunk is saved into a region while
// its header is being written.
func (m *Manager) FlushAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dirty := make([]*regionHandle, 0, len(m.regions))
	for _, h := range m.regions {
		if h.headerDirty {
			dirty = append(dirty, h)
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(flushConcurrency)
	for _, h := range dirty {
		h := h
		g.Go(func() error {
			if err := writeHeader(h); err != nil {
				return err
			}
			h.headerDirty = false
			return nil
		})
	}
	return g.Wait()
}

// CloseAll flushes every dirty header and closes every open region file.
// Intended for graceful shutdown once every chunk has been saved.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for pos, h := range m.regions {
		if h.headerDirty {
			if err := writeHeader(h); err != nil {
				return err
			}
		}
		if err := h.file.Close(); err != nil {
			return err
		}
		delete(m.regions, pos)
	}
	return nil
}
