package app

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/piivault/internal/crypto/domain"
	cryptoService "github.com/allisson/piivault/internal/crypto/service"
)

// MasterKeyChain returns the master key chain loaded from the environment,
// unsealed through the KMS when one is configured.
func (c *Container) MasterKeyChain() (*cryptoDomain.MasterKeyChain, error) {
	var err error
	c.masterKeyChainInit.Do(func() {
		c.masterKeyChain, err = c.initMasterKeyChain()
		if err != nil {
			c.initErrors["masterKeyChain"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["masterKeyChain"]; exists {
		return nil, storedErr
	}
	return c.masterKeyChain, nil
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KeyWrapper returns the data key wrapping service.
func (c *Container) KeyWrapper() (cryptoService.KeyWrapper, error) {
	var err error
	c.keyWrapperInit.Do(func() {
		c.keyWrapper, err = c.initKeyWrapper()
		if err != nil {
			c.initErrors["keyWrapper"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyWrapper"]; exists {
		return nil, storedErr
	}
	return c.keyWrapper, nil
}

// KMSService returns the KMS service used to unseal master keys.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// initMasterKeyChain loads the master key chain with fail-fast validation.
func (c *Container) initMasterKeyChain() (*cryptoDomain.MasterKeyChain, error) {
	kmsService := c.KMSService()
	logger := c.Logger()

	masterKeyChain, err := cryptoDomain.LoadMasterKeyChain(
		context.Background(),
		c.config,
		kmsService,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load master key chain: %w", err)
	}
	return masterKeyChain, nil
}

// initKeyWrapper creates the key wrapper using the configured KDF iteration
// count. Iteration counts below the floor are rejected here, before any
// envelope is sealed.
func (c *Container) initKeyWrapper() (cryptoService.KeyWrapper, error) {
	keyWrapper, err := cryptoService.NewKeyWrapper(c.AEADManager(), c.config.KDFIterations)
	if err != nil {
		return nil, fmt.Errorf("failed to create key wrapper: %w", err)
	}
	return keyWrapper, nil
}

// envelopeAlgorithm parses the configured AEAD algorithm for new envelopes.
func (c *Container) envelopeAlgorithm() (cryptoDomain.Algorithm, error) {
	algorithm, err := cryptoDomain.ParseAlgorithm(c.config.AEADAlgorithm)
	if err != nil {
		return "", fmt.Errorf("invalid AEAD_ALGORITHM: %w", err)
	}
	return algorithm, nil
}
