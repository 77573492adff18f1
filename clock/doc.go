/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package clock exposes the POSIX clocks a delay measurement can run against.

It provides
  - Source, a runtime selection of CLOCK_REALTIME, CLOCK_REALTIME_COARSE, CLOCK_MONOTONIC,
    CLOCK_MONOTONIC_COARSE and CLOCK_MONOTONIC_RAW with a human readable name
  - Clock, reading the current instant and the resolution of a Source via
    clock_gettime and clock_getres
  - read only CLOCK_ADJTIME helpers reporting how the kernel disciplines the system clock,
    which explains drift between the realtime, monotonic and raw clocks during a run
*/
package clock
