package stats

/*
This file defines all the metrics being collected.   As new metrics are added please follow this pattern.
*/

const (
	/************************* Resolver metrics **************************/
	/*
		number of top-level Resolve calls against a resolver (includes failed ones)
	*/
	IceResolveCounter = "resolveCounter"

	/*
		number of top-level Resolve calls that returned an error
	*/
	IceResolveErrCounter = "resolveErrCounter"

	/*
		number of times a factory was invoked and its product cached
	*/
	IceConstructCounter = "constructCounter"

	/*
		number of times a name was served from the owning resolver's cache
	*/
	IceCacheHitCounter = "cacheHitCounter"

	/*
		number of resources acquired
	*/
	IceAcquireCounter = "acquireCounter"

	/*
		number of resources released (includes releases that errored)
	*/
	IceReleaseCounter = "releaseCounter"

	/*
		number of releases that returned an error or panicked
	*/
	IceReleaseErrCounter = "releaseErrCounter"

	/*
		amount of time a factory (plus the acquire step, for resources) took
	*/
	IceFactoryLatency_ms = "factoryLatency_ms"

	/*
		number of resolvers currently open
	*/
	IceOpenScopesGauge = "openScopesGauge"

	/************************* icectl serve metrics **************************/
	/*
		number of http requests served, each in its own handler scope
	*/
	IcectlRequestCounter = "requestCounter"

	/*
		number of http requests whose handler scope failed to resolve or close
	*/
	IcectlRequestErrCounter = "requestErrCounter"

	/*
		amount of time spent serving one request, handler scope close included
	*/
	IcectlRequestLatency_ms = "requestLatency_ms"

	/*
		the amount of time icectl serve has been running
	*/
	IcectlUptime_ms = "uptime_ms"

	/*
		1 for a short while after icectl serve starts, 0 otherwise
	*/
	IcectlServerStartedGauge = "serverStartedGauge"
)
