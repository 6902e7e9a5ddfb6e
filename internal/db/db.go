// Package db implements the device catalogue persistence layer (C10):
// a badger-backed key/value store keyed by 8-byte IEEE address,
// gob-encoding a serialisable projection of model.Device.
package db

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"

	badger "github.com/dgraph-io/badger/v3"

	"zigcored/internal/zigbee/model"
)

// EndpointRecord is the persisted projection of model.Endpoint: the
// descriptor fields learned during interview, minus the live
// Properties/Reportings/Actions, which are re-derived by
// Catalogue.SetupDevice on load rather than serialised (Property is an
// interface and Action.Request is a func value, neither gob-encodable).
type EndpointRecord struct {
	ID                 model.EndpointID
	ProfileID          uint16
	DeviceID           uint16
	InClusterList      []model.ClusterID
	OutClusterList     []model.ClusterID
	ZoneStatus         model.ZoneStatus
	DescriptorReceived bool
}

// DeviceRecord is the persisted projection of model.Device.
type DeviceRecord struct {
	IEEEAddress      model.IEEEAddress
	NetworkAddress   model.NetworkAddress
	LogicalType      model.LogicalType
	Name             string
	ManufacturerName string
	ModelName        string
	FirmwareVersion  uint32
	PowerSource      uint8
	ManufacturerCode uint16
	InterviewState   model.InterviewState
	Endpoints        []EndpointRecord
	Neighbors        map[model.NetworkAddress]uint8
}

// ToDevice rebuilds a *model.Device from the record. The caller is
// still responsible for running Catalogue.SetupDevice afterwards to
// attach the live Properties/Reportings/Actions.
func (r DeviceRecord) ToDevice() *model.Device {
	d := model.NewDevice(r.IEEEAddress)
	d.NetworkAddress = r.NetworkAddress
	d.LogicalType = r.LogicalType
	d.Name = r.Name
	d.ManufacturerName = r.ManufacturerName
	d.ModelName = r.ModelName
	d.FirmwareVersion = r.FirmwareVersion
	d.PowerSource = r.PowerSource
	d.ManufacturerCode = r.ManufacturerCode
	d.InterviewState = r.InterviewState

	for k, v := range r.Neighbors {
		d.Neighbors[k] = v
	}
	for _, er := range r.Endpoints {
		d.Endpoints[er.ID] = &model.Endpoint{
			ID:                 er.ID,
			ProfileID:          er.ProfileID,
			DeviceID:           er.DeviceID,
			InClusterList:      er.InClusterList,
			OutClusterList:     er.OutClusterList,
			ZoneStatus:         er.ZoneStatus,
			DescriptorReceived: er.DescriptorReceived,
		}
	}
	return d
}

// NewDeviceRecord projects a live model.Device down to its persisted
// record.
func NewDeviceRecord(d *model.Device) DeviceRecord {
	r := DeviceRecord{
		IEEEAddress:      d.IEEEAddress,
		NetworkAddress:   d.NetworkAddress,
		LogicalType:      d.LogicalType,
		Name:             d.Name,
		ManufacturerName: d.ManufacturerName,
		ModelName:        d.ModelName,
		FirmwareVersion:  d.FirmwareVersion,
		PowerSource:      d.PowerSource,
		ManufacturerCode: d.ManufacturerCode,
		InterviewState:   d.InterviewState,
		Neighbors:        make(map[model.NetworkAddress]uint8, len(d.Neighbors)),
	}
	for k, v := range d.Neighbors {
		r.Neighbors[k] = v
	}
	for _, ep := range d.Endpoints {
		r.Endpoints = append(r.Endpoints, EndpointRecord{
			ID:                 ep.ID,
			ProfileID:          ep.ProfileID,
			DeviceID:           ep.DeviceID,
			InClusterList:      ep.InClusterList,
			OutClusterList:     ep.OutClusterList,
			ZoneStatus:         ep.ZoneStatus,
			DescriptorReceived: ep.DescriptorReceived,
		})
	}
	return r
}

// DeviceDB is the C10 contract: a durable catalogue of devices keyed
// by IEEE address.
type DeviceDB interface {
	GetDevices(ctx context.Context) ([]DeviceRecord, error)
	GetDevice(ctx context.Context, ieeeAddress uint64) (DeviceRecord, error)
	SaveDevice(ctx context.Context, device DeviceRecord) error
	DeleteDevice(ctx context.Context, ieeeAddress uint64) error
	Close(ctx context.Context) error
}

func NewDeviceDB(dirname string) (DeviceDB, error) {
	opt := badger.DefaultOptions(dirname)
	opt.ValueLogFileSize = 1024 * 1024 * 40

	bdb, err := badger.Open(opt)
	if err != nil {
		return nil, err
	}

	return &deviceDB{db: bdb}, nil
}

type deviceDB struct {
	db *badger.DB
}

func (d *deviceDB) GetDevices(ctx context.Context) ([]DeviceRecord, error) {
	var ret []DeviceRecord
	err := d.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				var r DeviceRecord
				dec := gob.NewDecoder(bytes.NewReader(v))
				if err := dec.Decode(&r); err != nil {
					return err
				}
				ret = append(ret, r)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (d *deviceDB) SaveDevice(ctx context.Context, device DeviceRecord) error {
	key := make([]byte, 8)
	binary.LittleEndian.PutUint64(key, uint64(device.IEEEAddress))

	buf := bytes.Buffer{}
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(device); err != nil {
		return err
	}

	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, buf.Bytes())
	})
}

func (d *deviceDB) DeleteDevice(ctx context.Context, ieeeAddress uint64) error {
	key := make([]byte, 8)
	binary.LittleEndian.PutUint64(key, ieeeAddress)

	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (d *deviceDB) GetDevice(ctx context.Context, ieeeAddress uint64) (DeviceRecord, error) {
	key := make([]byte, 8)
	binary.LittleEndian.PutUint64(key, ieeeAddress)

	var ret DeviceRecord
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			dec := gob.NewDecoder(bytes.NewReader(v))
			return dec.Decode(&ret)
		})
	})
	if err != nil {
		return DeviceRecord{}, err
	}
	return ret, nil
}

func (d *deviceDB) Close(ctx context.Context) error {
	return d.db.Close()
}
