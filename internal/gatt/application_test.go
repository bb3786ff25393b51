package gatt

import (
	"fmt"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ApplicationTestSuite verifies the managed-objects view and per-object
// property/read dispatch without a bus connection
type ApplicationTestSuite struct {
	suite.Suite
	app *Application
}

func (suite *ApplicationTestSuite) SetupTest() {
	logger, _ := test.NewNullLogger()
	suite.app = NewApplication(logger)
}

func (suite *ApplicationTestSuite) addService(index, chars int) *Service {
	logger, _ := test.NewNullLogger()
	svc := NewService(index, UUID16(fmt.Sprintf("%04x", 0x1800+index)), true, logger)
	for i := 0; i < chars; i++ {
		svc.NewCharacteristic(UUID16(fmt.Sprintf("%04x", 0x2a00+i)), []string{"read"},
			func(map[string]dbus.Variant) ([]byte, error) {
				return []byte{0x01}, nil
			})
	}
	suite.app.AddService(svc)
	return svc
}

func (suite *ApplicationTestSuite) TestManagedObjectsComplete() {
	// GOAL: Verify the object-manager view enumerates every service and
	// characteristic exactly once
	//
	// TEST SCENARIO: 2 services with 2+1 characteristics → 5 entries, each
	// characteristic's Service property resolves to a service entry

	suite.addService(0, 2)
	suite.addService(1, 1)

	objects := suite.app.ManagedObjects()
	suite.Len(objects, 5)

	servicePaths := make(map[dbus.ObjectPath]bool)
	for path, ifaces := range objects {
		if _, ok := ifaces[ServiceInterface]; ok {
			servicePaths[path] = true
		}
	}
	suite.Len(servicePaths, 2)

	for path, ifaces := range objects {
		props, ok := ifaces[CharacteristicInterface]
		if !ok {
			continue
		}
		owner, ok := props["Service"].Value().(dbus.ObjectPath)
		suite.True(ok, "Service property of %s must be an object path", path)
		suite.True(servicePaths[owner], "Service path %s of %s must be a key in the same mapping", owner, path)
	}
}

func (suite *ApplicationTestSuite) TestServicePropertiesListCharacteristics() {
	// GOAL: Verify the service property set declares its characteristic
	// paths in registration order
	//
	// TEST SCENARIO: service with 2 characteristics → Characteristics
	// property holds both derived paths

	svc := suite.addService(0, 2)

	props, derr := svc.GetAll(ServiceInterface)
	suite.Require().Nil(derr)

	suite.Equal(svc.UUID(), props["UUID"].Value())
	suite.Equal(true, props["Primary"].Value())
	suite.Equal([]dbus.ObjectPath{
		"/org/bluez/gatt/service0/char0000",
		"/org/bluez/gatt/service0/char0001",
	}, props["Characteristics"].Value())
}

func (suite *ApplicationTestSuite) TestHierarchicalPaths() {
	// GOAL: Verify path derivation keeps every object uniquely addressable
	//
	// TEST SCENARIO: two services, several characteristics → no duplicate
	// paths, characteristic paths extend their service path

	suite.addService(0, 2)
	suite.addService(1, 2)

	seen := make(map[dbus.ObjectPath]bool)
	for _, svc := range suite.app.Services() {
		suite.False(seen[svc.Path()])
		seen[svc.Path()] = true
		for _, c := range svc.Characteristics() {
			suite.False(seen[c.Path()])
			seen[c.Path()] = true
			suite.Contains(string(c.Path()), string(svc.Path())+"/char")
		}
	}
}

func (suite *ApplicationTestSuite) TestGetManagedObjectsMatchesView() {
	// GOAL: Verify the exported D-Bus method returns the same mapping as
	// the in-memory view
	//
	// TEST SCENARIO: populated application → GetManagedObjects equals
	// ManagedObjects with no error

	suite.addService(0, 2)

	objects, derr := suite.app.GetManagedObjects()
	suite.Nil(derr)
	suite.Equal(suite.app.ManagedObjects(), objects)
}

func TestApplicationTestSuite(t *testing.T) {
	suite.Run(t, new(ApplicationTestSuite))
}

func TestCharacteristicReadValue(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewService(0, UUID16("1805"), true, logger)

	readable := svc.NewCharacteristic(UUID16("2a2b"), []string{"read"},
		func(map[string]dbus.Variant) ([]byte, error) {
			return []byte{0xAA, 0xBB}, nil
		})
	unreadable := svc.NewCharacteristic(UUID16("2a0f"), nil, nil)
	failing := svc.NewCharacteristic(UUID16("2a0c"), []string{"read"},
		func(map[string]dbus.Variant) ([]byte, error) {
			return nil, fmt.Errorf("clock unavailable")
		})

	t.Run("readable characteristic returns handler value", func(t *testing.T) {
		value, derr := readable.ReadValue(nil)
		require.Nil(t, derr)
		require.Equal(t, []byte{0xAA, 0xBB}, value)
	})

	t.Run("read without handler is NotSupported", func(t *testing.T) {
		_, derr := unreadable.ReadValue(nil)
		require.NotNil(t, derr)
		require.Equal(t, "org.bluez.Error.NotSupported", derr.Name)
	})

	t.Run("handler error surfaces as Failed", func(t *testing.T) {
		_, derr := failing.ReadValue(nil)
		require.NotNil(t, derr)
		require.Equal(t, "org.bluez.Error.Failed", derr.Name)
	})
}

func TestGetAllUnknownInterface(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewService(0, UUID16("1805"), true, logger)
	chr := svc.NewCharacteristic(UUID16("2a2b"), []string{"read"},
		func(map[string]dbus.Variant) ([]byte, error) {
			return nil, nil
		})

	_, derr := svc.GetAll("org.bluez.GattCharacteristic1")
	require.NotNil(t, derr)
	require.Equal(t, "org.bluez.Error.InvalidArguments", derr.Name)

	_, derr = chr.GetAll("org.bluez.GattService1")
	require.NotNil(t, derr)
	require.Equal(t, "org.bluez.Error.InvalidArguments", derr.Name)
}
